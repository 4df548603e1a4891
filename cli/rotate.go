package cli

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/passnote/passnote/clierror"
	"github.com/passnote/passnote/genericclioptions"
	"github.com/passnote/passnote/input"
	"github.com/passnote/passnote/vaultcrypto"

	"github.com/spf13/cobra"
)

// RotateOptions have the data required to rotate the KDF configuration.
type RotateOptions struct {
	*genericclioptions.IOStreams

	appOptions *AppOptions

	opslimit    uint32
	memlimitMiB uint64
	keyLength   uint32
}

var _ genericclioptions.CmdOptions = &RotateOptions{}

// NewRotateOptions initializes the options struct.
func NewRotateOptions(defaults *DefaultPassnoteOptions) *RotateOptions {
	return &RotateOptions{
		IOStreams:  defaults.IOStreams,
		appOptions: defaults.appOptions,
	}
}

func (*RotateOptions) Complete() error { return nil }

func (*RotateOptions) Validate() error { return nil }

func (o *RotateOptions) Run(ctx context.Context, _ ...string) error {
	salt, err := vaultcrypto.NewSalt()
	if err != nil {
		return fmt.Errorf("rotate: %w", err)
	}

	newCfg := vaultcrypto.KDFConfig{
		Algorithm: vaultcrypto.AlgorithmArgon2id,
		Params: vaultcrypto.KDFParams{
			Salt:      base64.StdEncoding.EncodeToString(salt),
			KeyLength: o.keyLength,
			Opslimit:  o.opslimit,
			Memlimit:  o.memlimitMiB * 1024 * 1024,
		},
	}

	if err := newCfg.Validate(); err != nil {
		return err
	}

	password, err := input.PromptPassword(o.ErrOut, int(o.In.Fd()))
	if err != nil {
		return fmt.Errorf("prompt password: %w", err)
	}

	if err := o.appOptions.App().UpdateKDFConfig(ctx, newCfg, string(password)); err != nil {
		return err
	}

	o.Infof("passnote: vault re-encrypted under the new key configuration\n")

	return nil
}

// NewCmdRotate creates the rotate cobra command.
func NewCmdRotate(defaults *DefaultPassnoteOptions) *cobra.Command {
	o := NewRotateOptions(defaults)

	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Rotate the key derivation configuration",
		Long: `Re-encrypt the vault under a freshly salted KDF configuration.

Every record, template, label and the sentinel are decrypted under the
current key and re-encrypted under the new one in a single atomic step.`,
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.Flags().Uint32Var(&o.opslimit, "opslimit", vaultcrypto.DefaultOpslimit, "Argon2id time cost")
	cmd.Flags().Uint64Var(&o.memlimitMiB, "memlimit", vaultcrypto.DefaultMemlimit/(1024*1024), "Argon2id memory cost in MiB")
	cmd.Flags().Uint32Var(&o.keyLength, "key-length", vaultcrypto.DefaultKeyLength, "derived key length in bytes")

	return cmd
}
