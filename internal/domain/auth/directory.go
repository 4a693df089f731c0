package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pquerna/otp/totp"
	"gopkg.in/yaml.v3"
)

// Directory is a file-backed identity provider for development and for
// tenants that sign in without the backend. Users are scoped by tenant label;
// an empty tenant matches any tenant.
type Directory struct {
	users map[string]directoryUser
}

type directoryFile struct {
	Version int             `yaml:"version"`
	Users   []directoryUser `yaml:"users"`
}

type directoryUser struct {
	ID           string `yaml:"id"`
	Email        string `yaml:"email"`
	Name         string `yaml:"name"`
	Role         string `yaml:"role"`
	Tenant       string `yaml:"tenant"`
	PasswordHash string `yaml:"password_hash"`
	TOTPSecret   string `yaml:"totp_secret"`
}

func ParseDirectoryYAML(b []byte) (*Directory, error) {
	var file directoryFile
	if err := yaml.Unmarshal(b, &file); err != nil {
		return nil, err
	}
	if file.Version != 1 {
		return nil, errors.New("directory: unsupported version")
	}
	dir := &Directory{users: make(map[string]directoryUser, len(file.Users))}
	for i, user := range file.Users {
		user.Email = strings.ToLower(strings.TrimSpace(user.Email))
		user.Tenant = strings.ToLower(strings.TrimSpace(user.Tenant))
		if user.Email == "" || user.PasswordHash == "" {
			return nil, fmt.Errorf("directory: user %d requires email and password_hash", i)
		}
		if _, ok := ParseRole(user.Role); !ok {
			return nil, fmt.Errorf("directory: user %s has unknown role %q", user.Email, user.Role)
		}
		if user.ID == "" {
			user.ID = user.Email
		}
		key := directoryKey(user.Tenant, user.Email)
		if _, dup := dir.users[key]; dup {
			return nil, fmt.Errorf("directory: duplicate user %s", user.Email)
		}
		dir.users[key] = user
	}
	return dir, nil
}

func LoadDirectory(path string) (*Directory, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDirectoryYAML(b)
}

func (d *Directory) Authenticate(_ context.Context, creds Credentials) (Identity, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	tenant := strings.ToLower(strings.TrimSpace(creds.Tenant))
	user, ok := d.users[directoryKey(tenant, email)]
	if !ok {
		user, ok = d.users[directoryKey("", email)]
	}
	if !ok {
		return Identity{}, ErrInvalidCredentials
	}
	if err := CheckPassword(user.PasswordHash, creds.Password); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	if user.TOTPSecret != "" {
		code := strings.TrimSpace(creds.MFACode)
		if code == "" {
			return Identity{}, ErrMFARequired
		}
		if !totp.Validate(code, user.TOTPSecret) {
			return Identity{}, ErrMFAInvalid
		}
	}
	return Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	}, nil
}

func (d *Directory) Len() int {
	return len(d.users)
}

func directoryKey(tenant, email string) string {
	return tenant + "|" + email
}
