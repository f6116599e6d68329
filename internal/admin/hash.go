package admin

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/server/secrets"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// hash prompts for a secret without echo and prints its digest, for seeding
// accounts by hand.
func (a *App) hash(args []string) error {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	algorithm := fs.String("algorithm", secrets.AlgorithmBcrypt, "bcrypt or argon2")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v: %w", err, ErrUsage)
	}

	hasher, err := secrets.New(*algorithm, a.bcryptCost)
	if err != nil {
		return err
	}

	fmt.Fprint(a.out, "Enter secret: ")
	secret, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(secret)

	secret = bytes.TrimSpace(secret)
	if len(secret) == 0 {
		return errors.New("empty secret")
	}

	digest, err := hasher.Hash(string(secret))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, digest)
	return nil
}
