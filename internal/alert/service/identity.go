package service

import (
	"time"

	"github.com/reeeportnewsss/nww/pkg/utils"
)

// AssignIdentity returns the dedupe key of a record: its display name joined with the
// calendar date of now in loc. Two records with the same name on the same day share an
// identity, so only the first of them is ever alerted.
func AssignIdentity(name string, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return name + "_" + now.In(loc).Format(utils.DateLayout)
}
