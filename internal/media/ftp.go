package media

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jlaffaye/ftp"
)

type FTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	RemoteDir string
	PublicURL string // where RemoteDir is served over HTTP
}

// FTPStore uploads each image over a short-lived FTP session.
type FTPStore struct {
	cfg FTPConfig
}

func NewFTPStore(cfg FTPConfig) *FTPStore { return &FTPStore{cfg: cfg} }

func (s *FTPStore) dial(ctx context.Context) (*ftp.ServerConn, error) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(30*time.Second), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to FTP server: %w", err)
	}
	if err := conn.Login(s.cfg.Username, s.cfg.Password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("failed to login to FTP server: %w", err)
	}
	if s.cfg.RemoteDir != "" {
		if err := conn.ChangeDir(s.cfg.RemoteDir); err != nil {
			conn.Quit()
			return nil, fmt.Errorf("failed to change directory: %w", err)
		}
	}
	return conn, nil
}

func (s *FTPStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	name, err := objectName(filename)
	if err != nil {
		return "", err
	}
	conn, err := s.dial(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Quit()

	if err := conn.Stor(name, r); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return joinURL(s.cfg.PublicURL, name), nil
}
