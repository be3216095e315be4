package tunnel

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/term"
)

// authMethods assembles the SSH authentication chain for the gateway
// hop. Explicitly configured sources come first, in a fixed order:
// key file, agent, interactive password. With nothing configured, the
// agent and the usual ~/.ssh key names are probed.
func authMethods(cfg *SSHConfig) ([]ssh.AuthMethod, error) {
	var chain []ssh.AuthMethod

	if cfg.KeyPath != "" {
		signer, err := loadSigner(cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("gateway key %s: %w", cfg.KeyPath, err)
		}
		chain = append(chain, ssh.PublicKeys(signer))
	}

	if cfg.UseAgent {
		m, err := agentMethod()
		if err != nil {
			return nil, fmt.Errorf("gateway agent auth: %w", err)
		}
		chain = append(chain, m)
	}

	if cfg.PromptPass {
		pass, err := promptSecret("gateway SSH password: ")
		if err != nil {
			return nil, err
		}
		chain = append(chain, ssh.Password(pass))
	}

	if len(chain) == 0 {
		chain = probeDefaults()
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("no way to authenticate to the gateway: " +
			"provide --ssh-key, --ssh-agent, or --ssh-password")
	}
	return chain, nil
}

// loadSigner parses a private key file, prompting for a passphrase
// when the key turns out to be encrypted.
func loadSigner(path string) (ssh.Signer, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(pem)
	if err == nil {
		return signer, nil
	}
	if _, encrypted := err.(*ssh.PassphraseMissingError); !encrypted {
		return nil, err
	}

	pass, err := promptSecret(fmt.Sprintf("passphrase for %s: ", path))
	if err != nil {
		return nil, err
	}
	return ssh.ParsePrivateKeyWithPassphrase(pem, []byte(pass))
}

func agentMethod() (ssh.AuthMethod, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, fmt.Errorf("SSH_AUTH_SOCK unset")
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, err
	}
	return ssh.PublicKeysCallback(agent.NewClient(conn).Signers), nil
}

// promptSecret reads a secret from the controlling terminal without
// echo. The prompt and the trailing newline go to stderr so they never
// mix with relayed data on stdout.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return string(secret), nil
}

// probeDefaults mirrors what a plain `ssh` invocation would try: the
// agent if one is running, then the standard key files.
func probeDefaults() []ssh.AuthMethod {
	var chain []ssh.AuthMethod
	if m, err := agentMethod(); err == nil {
		chain = append(chain, m)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return chain
	}
	for _, name := range []string{"id_ed25519", "id_ecdsa", "id_rsa"} {
		signer, err := loadSigner(filepath.Join(home, ".ssh", name))
		if err != nil {
			continue
		}
		chain = append(chain, ssh.PublicKeys(signer))
	}
	return chain
}

// hostKeyPolicy returns the verification callback for the gateway's
// host key. Strict mode requires a known_hosts entry.
func hostKeyPolicy(cfg *SSHConfig) (ssh.HostKeyCallback, error) {
	if !cfg.StrictHostKey {
		//nolint:gosec // host key checking disabled by configuration
		return ssh.InsecureIgnoreHostKey(), nil
	}

	path := cfg.KnownHosts
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("known_hosts %s: %w", path, err)
	}
	return cb, nil
}
