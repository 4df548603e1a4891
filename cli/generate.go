package cli

import (
	"context"
	"fmt"

	"github.com/passnote/passnote/clierror"
	"github.com/passnote/passnote/clipboard"
	"github.com/passnote/passnote/genericclioptions"
	"github.com/passnote/passnote/randstring"

	"github.com/spf13/cobra"
)

// GenerateOptions have the data required for the generate command.
type GenerateOptions struct {
	*genericclioptions.IOStreams

	policy randstring.PasswordPolicy
	copy   bool
}

var _ genericclioptions.CmdOptions = &GenerateOptions{}

// NewGenerateOptions initializes the options struct.
func NewGenerateOptions(defaults *DefaultPassnoteOptions) *GenerateOptions {
	return &GenerateOptions{
		IOStreams: defaults.IOStreams,
	}
}

func (*GenerateOptions) Complete() error { return nil }

func (*GenerateOptions) Validate() error { return nil }

func (o *GenerateOptions) Run(context.Context, ...string) error {
	policy := o.policy

	zero := randstring.PasswordPolicy{}
	if policy == zero {
		policy = randstring.DefaultPasswordPolicy
	}

	s, err := randstring.NewWithPolicy(policy)
	if err != nil {
		return err
	}

	if o.copy {
		o.Debugf("copying generated password to clipboard\n")
		return clipboard.Copy(s)
	}

	o.Infof("%s\n", s)

	return nil
}

// NewCmdGenerate creates the generate cobra command.
func NewCmdGenerate(defaults *DefaultPassnoteOptions) *cobra.Command {
	o := NewGenerateOptions(defaults)

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen", "rand"},
		Short:   "Generate a random password",
		Long: fmt.Sprintf(`Generate a random password based on the provided character requirements and minimum length.

If no flags are provided, the default policy is:
  - At least %d uppercase letters
  - At least %d lowercase letters
  - At least %d digits
  - At least %d symbols
  - Minimum total length: %d`,
			randstring.DefaultPasswordPolicy.MinUppercase,
			randstring.DefaultPasswordPolicy.MinLowercase,
			randstring.DefaultPasswordPolicy.MinDigits,
			randstring.DefaultPasswordPolicy.MinSymbols,
			randstring.DefaultPasswordPolicy.MinLength,
		),
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.Flags().IntVar(&o.policy.MinLowercase, "lowercase", 0, "minimum number of lowercase letters")
	cmd.Flags().IntVar(&o.policy.MinUppercase, "uppercase", 0, "minimum number of uppercase letters")
	cmd.Flags().IntVar(&o.policy.MinDigits, "digits", 0, "minimum number of digits")
	cmd.Flags().IntVar(&o.policy.MinSymbols, "symbols", 0, "minimum number of symbols")
	cmd.Flags().IntVar(&o.policy.MinLength, "length", 0, "minimum total length")
	cmd.Flags().BoolVarP(&o.copy, "copy", "c", false, "copy the password to the clipboard instead of printing")

	return cmd
}
