package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parcr/lifeactuary/actuarial"
	"github.com/parcr/lifeactuary/interest"
	"github.com/parcr/lifeactuary/lifetable"
	"github.com/parcr/lifeactuary/policy"
)

type pricingInput struct {
	TaskID      string    `json:"task_id,omitempty"`
	Kind        string    `json:"kind"`
	IssueAge    float64   `json:"issue_age"`
	Term        int       `json:"term,omitempty"`
	Benefit     float64   `json:"benefit"`
	PremiumTerm int       `json:"premium_term,omitempty"`
	Frequency   int       `json:"frequency,omitempty"`
	Rate        float64   `json:"rate"`
	Timing      string    `json:"timing,omitempty"`
	Assumption  string    `json:"assumption,omitempty"`
	Duration    *int      `json:"duration,omitempty"`
	Table       tableJSON `json:"table"`
}

type tableJSON struct {
	Name   string    `json:"name,omitempty"`
	MinAge int       `json:"min_age"`
	Qx     []float64 `json:"qx"`
}

type pricingOutput struct {
	TaskID        string       `json:"task_id,omitempty"`
	Kind          string       `json:"kind"`
	IssueAge      float64      `json:"issue_age"`
	Benefit       float64      `json:"benefit"`
	SinglePremium float64      `json:"single_premium"`
	AnnualPremium float64      `json:"annual_premium"`
	Reserve       *reserveJSON `json:"reserve,omitempty"`
	Error         string       `json:"error,omitempty"`
}

type reserveJSON struct {
	Duration      int     `json:"duration"`
	Prospective   float64 `json:"prospective"`
	Retrospective float64 `json:"retrospective"`
}

func main() {
	inputPath := flag.String("input", "", "JSON input path (reads stdin if omitted)")
	help := flag.Bool("h", false, "Show help")
	flag.BoolVar(help, "help", false, "Show help")
	flag.Parse()

	if *help {
		fmt.Fprintln(os.Stderr, "Usage: epvbatch -input <path>")
		fmt.Fprintln(os.Stderr, "Price life insurance contracts from JSON, one object or an array.")
		return
	}

	path := strings.TrimSpace(*inputPath)
	if path == "" {
		if stat, err := os.Stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
			fmt.Fprintln(os.Stderr, "Usage: epvbatch -input <path>")
			os.Exit(2)
		}
	}

	raw, err := readInput(path)
	if err != nil {
		exitError(fmt.Sprintf("read input: %v", err))
	}

	inputs, isArray, err := parseInputs(raw)
	if err != nil {
		exitError(fmt.Sprintf("parse JSON: %v", err))
	}

	hadError := false
	outputs := make([]pricingOutput, 0, len(inputs))
	for _, in := range inputs {
		out, err := process(in)
		if err != nil {
			hadError = true
			outputs = append(outputs, pricingOutput{TaskID: in.TaskID, Error: err.Error()})
			continue
		}
		outputs = append(outputs, *out)
	}

	if isArray {
		b, _ := json.Marshal(outputs)
		fmt.Println(string(b))
	} else {
		b, _ := json.Marshal(outputs[0])
		fmt.Println(string(b))
	}

	if hadError {
		os.Exit(1)
	}
}

func process(in pricingInput) (*pricingOutput, error) {
	kind, err := policy.ParseKind(in.Kind)
	if err != nil {
		return nil, err
	}
	assumption := lifetable.UniformDeaths
	if in.Assumption != "" {
		assumption, err = lifetable.ParseAssumption(in.Assumption)
		if err != nil {
			return nil, err
		}
	}
	timing, err := actuarial.ParseClaimTiming(in.Timing)
	if err != nil {
		return nil, err
	}

	name := in.Table.Name
	if name == "" {
		name = "batch"
	}
	tab, err := lifetable.New(lifetable.Builder{
		Name:       name,
		MinAge:     in.Table.MinAge,
		Qx:         in.Table.Qx,
		Assumption: assumption,
	})
	if err != nil {
		return nil, err
	}
	model, err := interest.NewFlatRate(in.Rate)
	if err != nil {
		return nil, err
	}
	eng, err := actuarial.NewEngine(tab, model, actuarial.Config{Timing: timing})
	if err != nil {
		return nil, err
	}
	calc, err := policy.NewCalculator(eng)
	if err != nil {
		return nil, err
	}

	p := policy.Policy{
		Kind:             kind,
		IssueAge:         in.IssueAge,
		Term:             in.Term,
		Benefit:          in.Benefit,
		PremiumTerm:      in.PremiumTerm,
		PremiumFrequency: in.Frequency,
	}
	single, err := calc.SinglePremium(p)
	if err != nil {
		return nil, err
	}
	annual, err := calc.NetPremium(p)
	if err != nil {
		return nil, err
	}

	out := &pricingOutput{
		TaskID:        in.TaskID,
		Kind:          in.Kind,
		IssueAge:      in.IssueAge,
		Benefit:       in.Benefit,
		SinglePremium: single,
		AnnualPremium: annual,
	}
	if in.Duration != nil {
		r, err := calc.ReserveAt(p, *in.Duration)
		if err != nil {
			return nil, err
		}
		out.Reserve = &reserveJSON{
			Duration:      r.Duration,
			Prospective:   r.Prospective,
			Retrospective: r.Retrospective,
		}
	}
	return out, nil
}

func readInput(path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(os.Stdin)
}

func parseInputs(raw []byte) ([]pricingInput, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("empty input")
	}
	if trimmed[0] == '[' {
		var inputs []pricingInput
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			return nil, true, err
		}
		if len(inputs) == 0 {
			return nil, true, fmt.Errorf("empty input array")
		}
		return inputs, true, nil
	}
	var input pricingInput
	if err := json.Unmarshal(trimmed, &input); err != nil {
		return nil, false, err
	}
	return []pricingInput{input}, false, nil
}

func exitError(msg string) {
	b, _ := json.Marshal(pricingOutput{Error: msg})
	fmt.Println(string(b))
	os.Exit(1)
}
