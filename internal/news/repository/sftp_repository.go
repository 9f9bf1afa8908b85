package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/reeeportnewsss/nww/internal/news/config"
	"github.com/reeeportnewsss/nww/pkg/logger"
)

type sftpSender struct {
	cfg       config.SFTP
	outputDir string
	log       *logger.Logger
}

// NewSFTPSender creates a ReportSender that writes the report into outputDir and uploads
// the file to cfg.RemoteDir.
func NewSFTPSender(cfg config.SFTP, outputDir string, log *logger.Logger) ReportSender {
	return &sftpSender{cfg: cfg, outputDir: outputDir, log: log}
}

func (s *sftpSender) Send(ctx context.Context, report Report) error {
	localPath := filepath.Join(s.outputDir, report.FileName)
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir %s: %w", s.outputDir, err)
	}
	if err := os.WriteFile(localPath, []byte(report.Body), 0o644); err != nil {
		return fmt.Errorf("failed to save report %s: %w", localPath, err)
	}
	s.log.InfoContext(ctx, "Report saved locally", logger.StringField("path", localPath))

	hostKeyCallback, err := s.hostKeyCallback(ctx)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	dialer := net.Dialer{Timeout: s.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, &ssh.ClientConfig{
		User:            s.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(s.cfg.Password)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         s.cfg.Timeout,
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("ssh handshake with %s failed: %w", addr, err)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)
	defer sshClient.Close()

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		return fmt.Errorf("failed to start sftp session: %w", err)
	}
	defer client.Close()

	if err := client.MkdirAll(s.cfg.RemoteDir); err != nil {
		return fmt.Errorf("failed to create remote dir %s: %w", s.cfg.RemoteDir, err)
	}

	remotePath := path.Join(s.cfg.RemoteDir, report.FileName)
	if err := upload(client, localPath, remotePath); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "Report transferred", logger.StringField("host", s.cfg.Host), logger.StringField("path", remotePath))
	return nil
}

func (s *sftpSender) hostKeyCallback(ctx context.Context) (ssh.HostKeyCallback, error) {
	if s.cfg.KnownHostsFile == "" {
		s.log.WarnContext(ctx, "sftp.known_hosts_file is not set, host key is not verified", logger.StringField("host", s.cfg.Host))
		return ssh.InsecureIgnoreHostKey(), nil
	}
	file := s.cfg.KnownHostsFile
	if rest, ok := strings.CutPrefix(file, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home dir: %w", err)
		}
		file = filepath.Join(home, rest)
	}
	callback, err := knownhosts.New(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load known hosts %s: %w", file, err)
	}
	return callback, nil
}

func upload(client *sftp.Client, localPath, remotePath string) (err error) {
	src, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := client.Create(remotePath)
	if err != nil {
		return fmt.Errorf("failed to create remote file %s: %w", remotePath, err)
	}
	defer func() {
		err = errors.Join(err, dst.Close())
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to upload %s: %w", remotePath, err)
	}
	return nil
}
