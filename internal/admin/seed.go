// Package admin is the operator console: it seeds accounts from a terminal
// through the same registration path the web signup uses.
package admin

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

var ErrPasswordMismatch = errors.New("passwords do not match")

type Registrar interface {
	Register(ctx context.Context, req services.RegisterRequest) (*models.Account, error)
}

type Seeder struct {
	registrar Registrar
	reader    *bufio.Reader
	out       io.Writer
	fd        int
}

// NewSeeder reads answers from in, writes prompts to out and reads passwords
// from the terminal behind fd.
func NewSeeder(r Registrar, in io.Reader, out io.Writer, fd int) *Seeder {
	return &Seeder{registrar: r, reader: bufio.NewReader(in), out: out, fd: fd}
}

// CreateAccount asks for the account details and registers it.
func (s *Seeder) CreateAccount(ctx context.Context) (*models.Account, error) {
	username, err := GetSimpleText(s.reader, "Enter user name (optional)", s.out)
	if err != nil {
		return nil, err
	}

	email, err := GetSimpleText(s.reader, "Enter email", s.out)
	if err != nil {
		return nil, err
	}

	password, err := GetPassword(s.fd, "Enter password", s.out)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(password)

	confirm, err := GetPassword(s.fd, "Repeat password", s.out)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(password, confirm) {
		return nil, ErrPasswordMismatch
	}

	account, err := s.registrar.Register(ctx, services.RegisterRequest{
		Username: username,
		Email:    email,
		Password: string(password),
	})
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(s.out, "Account created: %s\n", account.Email)
	return account, nil
}
