// Package wizard builds a description interactively from a line-oriented
// reader, re-asking until each answer is valid.
package wizard

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/GoSim-25-26J-441/autotune-core/internal/space"
	"github.com/GoSim-25-26J-441/autotune-core/pkg/config"
)

// ErrNoInput is returned when the reader ends before the wizard is done.
var ErrNoInput = errors.New("wizard: input ended before all answers were given")

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a prompter.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// ask prints question and returns the trimmed answer line.
func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", fmt.Errorf("wizard: failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *Prompter) complain(format string, args ...any) {
	fmt.Fprintf(p.out, "  error: "+format+"\n", args...)
}

// Objective asks whether to maximize or minimize. It accepts 1 or 2 as well
// as any objective spelling.
func (p *Prompter) Objective() (string, error) {
	for {
		fmt.Fprintln(p.out, "What should the search do?")
		fmt.Fprintln(p.out, " [1] MAXIMIZE (look for the largest value)")
		fmt.Fprintln(p.out, " [2] MINIMIZE (look for the smallest value)")
		answer, err := p.ask(">> choice (1 or 2): ")
		if err != nil {
			return "", err
		}
		switch answer {
		case "1":
			return config.ObjectiveMaximize, nil
		case "2":
			return config.ObjectiveMinimize, nil
		}
		if obj, ok := config.NormalizeObjective(answer); ok {
			return obj, nil
		}
		p.complain("invalid option %q, try again", answer)
	}
}

// Description walks through the executable, the objective and every
// parameter, and returns a description that passes validation.
func (p *Prompter) Description() (*config.Description, error) {
	fmt.Fprintln(p.out, "--- Optimization description wizard ---")

	desc := &config.Description{}
	for desc.Executable == "" {
		exe, err := p.ask("Executable to optimize (e.g. ./model10): ")
		if err != nil {
			return nil, err
		}
		if exe == "" {
			p.complain("the executable cannot be empty")
		}
		desc.Executable = exe
	}

	obj, err := p.Objective()
	if err != nil {
		return nil, err
	}
	desc.Objective = obj

	count, err := p.positiveInt("How many parameters does the executable take? ")
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool, count)
	for i := 0; i < count; i++ {
		fmt.Fprintf(p.out, "\n--- Parameter #%d of %d ---\n", i+1, count)
		param, err := p.parameter(i, names)
		if err != nil {
			return nil, err
		}
		names[param.Name] = true
		desc.Parameters = append(desc.Parameters, param)
	}

	if err := config.ValidateDescription(desc); err != nil {
		return nil, err
	}
	if _, err := space.New(desc); err != nil {
		return nil, err
	}
	fmt.Fprintln(p.out, "\n--- Description complete ---")
	return desc, nil
}

func (p *Prompter) positiveInt(question string) (int, error) {
	for {
		answer, err := p.ask(question)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err != nil {
			p.complain("enter a whole number")
			continue
		}
		if n <= 0 {
			p.complain("enter a positive number")
			continue
		}
		return n, nil
	}
}

func (p *Prompter) parameter(i int, taken map[string]bool) (config.ParameterConfig, error) {
	var param config.ParameterConfig
	for param.Name == "" {
		name, err := p.ask(fmt.Sprintf("Name of parameter #%d (e.g. x1, temperature): ", i+1))
		if err != nil {
			return param, err
		}
		switch {
		case name == "":
			p.complain("the name cannot be empty")
		case taken[name]:
			p.complain("parameter %q already exists", name)
		default:
			param.Name = name
		}
	}

	for param.Type == "" {
		answer, err := p.ask(fmt.Sprintf("Type of %q [%s/%s/%s]: ",
			param.Name, config.TypeInteger, config.TypeFloat, config.TypeCategorical))
		if err != nil {
			return param, err
		}
		kind, ok := config.NormalizeType(answer)
		if !ok {
			p.complain("unknown type %q", answer)
			continue
		}
		param.Type = kind
	}

	if param.Type == config.TypeCategorical {
		return p.categorical(param)
	}
	return p.numeric(param)
}

func (p *Prompter) numeric(param config.ParameterConfig) (config.ParameterConfig, error) {
	integer := param.Type == config.TypeInteger
	var lo, hi float64
	for {
		answer, err := p.ask(fmt.Sprintf("Limits (min, max) of %q (e.g. 1, 100): ", param.Name))
		if err != nil {
			return param, err
		}
		parts := strings.Split(answer, ",")
		if len(parts) != 2 {
			p.complain("use the form number,number (e.g. 1,100)")
			continue
		}
		lo, err = parseNumber(parts[0], integer)
		if err == nil {
			hi, err = parseNumber(parts[1], integer)
		}
		if err != nil {
			p.complain("%v", err)
			continue
		}
		if lo > hi {
			p.complain("min %v is greater than max %v", lo, hi)
			continue
		}
		param.Limits = []any{numberValue(lo, integer), numberValue(hi, integer)}
		break
	}

	for {
		answer, err := p.ask(fmt.Sprintf("Initial value of %q (e.g. %v): ", param.Name, numberValue((lo+hi)/2, integer)))
		if err != nil {
			return param, err
		}
		v, err := parseNumber(answer, integer)
		if err != nil {
			p.complain("%v", err)
			continue
		}
		if v < lo || v > hi {
			p.complain("the initial value must be between %v and %v", lo, hi)
			continue
		}
		param.InitialValue = numberValue(v, integer)
		break
	}

	for {
		answer, err := p.ask(fmt.Sprintf("Refinement step of %q (empty for default): ", param.Name))
		if err != nil {
			return param, err
		}
		if answer == "" {
			break
		}
		step, err := parseNumber(answer, integer)
		if err != nil || step <= 0 {
			p.complain("the step must be a positive number")
			continue
		}
		param.Step = config.Float64Ptr(step)
		break
	}
	return param, nil
}

func (p *Prompter) categorical(param config.ParameterConfig) (config.ParameterConfig, error) {
	var options []string
	for len(options) == 0 {
		answer, err := p.ask(fmt.Sprintf("Options of %q, comma separated (e.g. low,medium,high): ", param.Name))
		if err != nil {
			return param, err
		}
		seen := make(map[string]bool)
		valid := true
		for _, o := range strings.Split(answer, ",") {
			o = strings.TrimSpace(o)
			if o == "" || seen[o] {
				valid = false
				break
			}
			seen[o] = true
			options = append(options, o)
		}
		if !valid {
			p.complain("options must be non-empty and distinct")
			options = nil
		}
	}
	param.Limits = make([]any, len(options))
	for i, o := range options {
		param.Limits[i] = o
	}

	for param.InitialValue == nil {
		answer, err := p.ask(fmt.Sprintf("Initial value of %q (one of %s): ", param.Name, strings.Join(options, ", ")))
		if err != nil {
			return param, err
		}
		for _, o := range options {
			if o == answer {
				param.InitialValue = o
			}
		}
		if param.InitialValue == nil {
			p.complain("the value must be exactly one of: %s", strings.Join(options, ", "))
		}
	}
	return param, nil
}

func parseNumber(s string, integer bool) (float64, error) {
	s = strings.TrimSpace(s)
	if integer {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a whole number", s)
		}
		return float64(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return f, nil
}

func numberValue(v float64, integer bool) any {
	if integer {
		return int64(v)
	}
	return v
}
