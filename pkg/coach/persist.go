package coach

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

// PersistOptions control where and how a rendered report is stored.
type PersistOptions struct {
	// Destination is a local path or an ftp://host[:port]/path URL.
	Destination string

	// FTP credentials. Anonymous login is attempted when empty.
	FTPUsername string
	FTPPassword string

	// FTPDirectory is changed into after login, when set. It is not
	// created automatically.
	FTPDirectory string
}

// PersistReport writes content to a local file or uploads it over FTP.
// It returns a confirmation message describing the destination.
func PersistReport(content string, opts PersistOptions) (string, error) {
	if opts.Destination == "" {
		return "", fmt.Errorf("coach: destination is required")
	}

	parsed, err := url.Parse(opts.Destination)
	if err != nil || parsed.Scheme == "" || parsed.Scheme == "file" {
		return persistLocal(content, opts.Destination, parsed)
	}
	if parsed.Scheme != "ftp" {
		return "", fmt.Errorf("coach: destination must be a local path or an ftp:// URL")
	}
	return persistFTP(content, parsed, opts)
}

func persistLocal(content, destination string, parsed *url.URL) (string, error) {
	path := destination
	if parsed != nil && parsed.Scheme == "file" {
		path = parsed.Path
	}
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("coach: failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("coach: failed to write report: %w", err)
	}
	return "Report saved locally at: " + path, nil
}

func persistFTP(content string, parsed *url.URL, opts PersistOptions) (string, error) {
	host := parsed.Hostname()
	if host == "" {
		return "", fmt.Errorf("coach: FTP URL must include a hostname")
	}
	port := parsed.Port()
	if port == "" {
		port = "21"
	}
	remotePath := strings.TrimPrefix(parsed.Path, "/")
	if remotePath == "" {
		return "", fmt.Errorf("coach: FTP URL must include a file path")
	}

	conn, err := ftp.Dial(host+":"+port, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return "", fmt.Errorf("coach: FTP connection failed: %w", err)
	}
	defer conn.Quit()

	user := opts.FTPUsername
	if user == "" {
		user = "anonymous"
	}
	if err := conn.Login(user, opts.FTPPassword); err != nil {
		return "", fmt.Errorf("coach: FTP login failed: %w", err)
	}

	if opts.FTPDirectory != "" {
		if err := conn.ChangeDir(opts.FTPDirectory); err != nil {
			return "", fmt.Errorf("coach: FTP directory change failed: %w", err)
		}
	}

	// Walk into subdirectories, creating them as needed.
	dir, filename := filepath.Split(remotePath)
	for _, segment := range strings.Split(dir, "/") {
		if segment == "" {
			continue
		}
		// MakeDir fails when the directory exists already.
		_ = conn.MakeDir(segment)
		if err := conn.ChangeDir(segment); err != nil {
			return "", fmt.Errorf("coach: FTP directory change failed: %w", err)
		}
	}

	if err := conn.Stor(filename, strings.NewReader(content)); err != nil {
		return "", fmt.Errorf("coach: FTP upload failed: %w", err)
	}
	return fmt.Sprintf("Report uploaded to FTP at: ftp://%s/%s", host, remotePath), nil
}
