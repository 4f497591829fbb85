package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	booleanFlagTypeName       = "bool"
	booleanFlagAcceptedValues = "true, false, yes, no, on, off, 1, 0"
	invalidBooleanFormat      = "invalid boolean value %q for --%s; accepted values: %s"
)

var booleanLiterals = map[string]bool{
	"true": true, "t": true, "1": true, "yes": true, "y": true, "on": true,
	"false": false, "f": false, "0": false, "no": false, "n": false, "off": false,
}

// parseBooleanLiteral accepts the literals of booleanLiterals case-insensitively;
// an empty input means true.
func parseBooleanLiteral(input string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return true, true
	}
	value, known := booleanLiterals[normalized]
	return value, known
}

// literalBoolValue is a pflag.Value that understands yes/no style literals.
type literalBoolValue struct {
	target *bool
	name   string
}

func (value *literalBoolValue) Set(input string) error {
	parsed, known := parseBooleanLiteral(input)
	if !known {
		return fmt.Errorf(invalidBooleanFormat, input, value.name, booleanFlagAcceptedValues)
	}
	*value.target = parsed
	return nil
}

func (value *literalBoolValue) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *literalBoolValue) Type() string {
	return booleanFlagTypeName
}

// registerBooleanFlag defines --name so that it may appear bare, as --name=no, or
// as --name no once the arguments went through normalizeBooleanArguments.
func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	*target = defaultValue
	flagSet.Var(&literalBoolValue{target: target, name: name}, name, usage)
	registered := flagSet.Lookup(name)
	registered.DefValue = strconv.FormatBool(defaultValue)
	registered.NoOptDefVal = strconv.FormatBool(true)
}

// normalizeBooleanArguments joins "--flag literal" pairs into "--flag=literal" for
// every boolean flag known to command or its subcommands.
func normalizeBooleanArguments(command *cobra.Command, arguments []string) []string {
	booleanNames := map[string]struct{}{}
	collectBooleanFlags(command, booleanNames)

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == "--" {
			return append(normalized, arguments[index:]...)
		}
		name := strings.TrimPrefix(argument, "--")
		_, isBoolean := booleanNames[name]
		if isBoolean && name != argument && !strings.Contains(name, "=") && index+1 < len(arguments) {
			next := arguments[index+1]
			if _, known := parseBooleanLiteral(next); known && next != "" && !strings.HasPrefix(next, "-") {
				normalized = append(normalized, argument+"="+next)
				index++
				continue
			}
		}
		normalized = append(normalized, argument)
	}
	return normalized
}

func collectBooleanFlags(command *cobra.Command, names map[string]struct{}) {
	record := func(flag *pflag.Flag) {
		if flag.Value.Type() == booleanFlagTypeName {
			names[flag.Name] = struct{}{}
		}
	}
	command.PersistentFlags().VisitAll(record)
	command.Flags().VisitAll(record)
	for _, child := range command.Commands() {
		collectBooleanFlags(child, names)
	}
}
