package repository

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/reeeportnewsss/nww/internal/news/config"
	"github.com/reeeportnewsss/nww/pkg/logger"
)

const (
	sftpUser     = "deploy"
	sftpPassword = "s3cret"
)

// startSFTPServer serves the local filesystem over SFTP on a loopback port, accepting
// only sftpUser/sftpPassword.
func startSFTPServer(t *testing.T) (string, int, ssh.PublicKey) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	serverCfg := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == sftpUser && string(pass) == sftpPassword {
				return nil, nil
			}
			return nil, errors.New("permission denied")
		},
	}
	serverCfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveSFTP(conn, serverCfg)
		}
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return host, p, signer.PublicKey()
}

func serveSFTP(conn net.Conn, cfg *ssh.ServerConfig) {
	defer conn.Close()
	_, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		return
	}
	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			_ = newChannel.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		channel, requests, err := newChannel.Accept()
		if err != nil {
			return
		}
		go func(in <-chan *ssh.Request) {
			for req := range in {
				ok := req.Type == "subsystem" && len(req.Payload) > 4 && string(req.Payload[4:]) == "sftp"
				_ = req.Reply(ok, nil)
			}
		}(requests)

		server, err := sftp.NewServer(channel)
		if err != nil {
			return
		}
		_ = server.Serve()
		_ = server.Close()
	}
}

func writeKnownHosts(t *testing.T, dir, host string, port int, key ssh.PublicKey) string {
	t.Helper()
	path := filepath.Join(dir, "known_hosts")
	line := knownhosts.Line([]string{net.JoinHostPort(host, strconv.Itoa(port))}, key)
	require.NoError(t, os.WriteFile(path, []byte(line+"\n"), 0o600))
	return path
}

func testSFTPConfig(t *testing.T, host string, port int) config.SFTP {
	return config.SFTP{
		Host:      host,
		Port:      port,
		User:      sftpUser,
		Password:  sftpPassword,
		RemoteDir: filepath.Join(t.TempDir(), "reports", "daily"),
		Timeout:   5 * time.Second,
	}
}

var sftpReport = Report{
	Subject:  "Indian Corporate News Analysis - 2024-03-15",
	FileName: "corporate_news_2024-03-15.txt",
	Body:     "=== Indian Corporate News Analysis ===\n\nAnswer:\nBest news\n",
}

func TestSFTPSender_UploadsWithKnownHosts(t *testing.T) {
	host, port, hostKey := startSFTPServer(t)

	home := t.TempDir()
	t.Setenv("HOME", home)
	writeKnownHosts(t, home, host, port, hostKey)

	cfg := testSFTPConfig(t, host, port)
	cfg.KnownHostsFile = "~/known_hosts"
	outputDir := filepath.Join(t.TempDir(), "out")

	require.NoError(t, NewSFTPSender(cfg, outputDir, logger.NewNop()).Send(context.Background(), sftpReport))

	local, err := os.ReadFile(filepath.Join(outputDir, sftpReport.FileName))
	require.NoError(t, err)
	assert.Equal(t, sftpReport.Body, string(local))

	remote, err := os.ReadFile(filepath.Join(cfg.RemoteDir, sftpReport.FileName))
	require.NoError(t, err)
	assert.Equal(t, sftpReport.Body, string(remote))
}

func TestSFTPSender_RejectsUnknownHostKey(t *testing.T) {
	host, port, _ := startSFTPServer(t)

	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	otherKey, err := ssh.NewPublicKey(otherPub)
	require.NoError(t, err)

	cfg := testSFTPConfig(t, host, port)
	cfg.KnownHostsFile = writeKnownHosts(t, t.TempDir(), host, port, otherKey)

	err = NewSFTPSender(cfg, t.TempDir(), logger.NewNop()).Send(context.Background(), sftpReport)
	assert.ErrorContains(t, err, "ssh handshake")
	_, statErr := os.Stat(filepath.Join(cfg.RemoteDir, sftpReport.FileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSFTPSender_WithoutKnownHostsWarns(t *testing.T) {
	host, port, _ := startSFTPServer(t)
	core, logs := observer.New(zapcore.WarnLevel)

	cfg := testSFTPConfig(t, host, port)
	require.NoError(t, NewSFTPSender(cfg, t.TempDir(), logger.NewFromZap(zap.New(core))).Send(context.Background(), sftpReport))

	assert.Equal(t, 1, logs.FilterMessage("sftp.known_hosts_file is not set, host key is not verified").Len())
	_, err := os.Stat(filepath.Join(cfg.RemoteDir, sftpReport.FileName))
	assert.NoError(t, err)
}

func TestSFTPSender_Errors(t *testing.T) {
	host, port, _ := startSFTPServer(t)
	ctx := context.Background()

	cfg := testSFTPConfig(t, host, port)
	cfg.KnownHostsFile = filepath.Join(t.TempDir(), "missing_known_hosts")
	assert.ErrorContains(t, NewSFTPSender(cfg, t.TempDir(), logger.NewNop()).Send(ctx, sftpReport), "failed to load known hosts")

	cfg = testSFTPConfig(t, host, port)
	cfg.Password = "wrong"
	assert.ErrorContains(t, NewSFTPSender(cfg, t.TempDir(), logger.NewNop()).Send(ctx, sftpReport), "ssh handshake")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	closedPort := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	outputDir := t.TempDir()
	cfg = testSFTPConfig(t, "127.0.0.1", closedPort)
	assert.ErrorContains(t, NewSFTPSender(cfg, outputDir, logger.NewNop()).Send(ctx, sftpReport), "failed to connect")
	// the local copy is kept even when the upload fails
	_, err = os.Stat(filepath.Join(outputDir, sftpReport.FileName))
	assert.NoError(t, err)
}
