package momee

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path"
	"strconv"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
)

const defaultSshKeyPath = "~/.ssh/id_rsa"

// Uploader copies a file into the home directory of the login user on a cluster host.
type Uploader interface {
	Upload(ctx context.Context, host string, name string, data []byte) error
}

// SshUploader uploads files with the scp sink protocol over an SSH session.
type SshUploader struct {
	config *ssh.ClientConfig
	port   uint16
}

// NewSshUploader authenticates as config.User with the private key in config.KeyFile,
// or ~/.ssh/id_rsa if no key file is given.
func NewSshUploader(config SshConfig) (*SshUploader, error) {
	keyFile := config.KeyFile
	if keyFile == "" {
		keyFile = defaultSshKeyPath
	}
	keyFile, err := homedir.Expand(keyFile)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	auth, err := authMethod(keyFile)
	if err != nil {
		return nil, err
	}
	port := config.Port
	if port == 0 {
		port = 22
	}
	return &SshUploader{
		config: &ssh.ClientConfig{
			User: config.User,
			Auth: []ssh.AuthMethod{auth},
			// Cluster agents are recreated with every test cluster; there is no known_hosts to check against.
			HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		},
		port: port,
	}, nil
}

func authMethod(keyFile string) (ssh.AuthMethod, error) {
	buffer, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, errors.WithMessagef(err, "error reading ssh key %s", keyFile)
	}
	key, err := ssh.ParsePrivateKey(buffer)
	if err != nil {
		return nil, errors.WithMessagef(err, "error parsing ssh key %s", keyFile)
	}
	return ssh.PublicKeys(key), nil
}

func (u *SshUploader) Upload(ctx context.Context, host string, name string, data []byte) error {
	addr := net.JoinHostPort(host, strconv.Itoa(int(u.port)))
	logger := log.WithField("host", addr)

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.WithStack(err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return errors.WithStack(err)
		}
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, u.config)
	if err != nil {
		conn.Close()
		return errors.WithMessagef(err, "error connecting to %s", addr)
	}
	client := ssh.NewClient(c, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return errors.WithStack(err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	stdin, err := session.StdinPipe()
	if err != nil {
		return errors.WithStack(err)
	}
	if err := session.Start("scp -t ."); err != nil {
		return errors.WithStack(err)
	}

	logger.Infof("uploading %s (%d bytes)", name, len(data))
	if _, err := fmt.Fprintf(stdin, "C0644 %d %s\n", len(data), path.Base(name)); err != nil {
		return errors.WithStack(err)
	}
	if _, err := stdin.Write(data); err != nil {
		return errors.WithStack(err)
	}
	if _, err := stdin.Write([]byte{0}); err != nil {
		return errors.WithStack(err)
	}
	if err := stdin.Close(); err != nil {
		return errors.WithStack(err)
	}
	if err := session.Wait(); err != nil {
		return errors.WithMessagef(err, "error uploading %s to %s: %s", name, addr, stderr.String())
	}
	return nil
}
