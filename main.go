package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/parcr/lifeactuary/actuarial"
	"github.com/parcr/lifeactuary/interest"
	"github.com/parcr/lifeactuary/lifetable"
	"github.com/parcr/lifeactuary/policy"
)

func main() {
	tab, err := lifetable.New(lifetable.Builder{
		Name:   "annuitants-2024",
		MinAge: 60,
		Qx: []float64{
			0.0102, 0.0112, 0.0124, 0.0138, 0.0154,
			0.0173, 0.0194, 0.0218, 0.0245, 0.0276,
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	model, err := interest.NewFlatRate(0.05)
	if err != nil {
		log.Fatal(err)
	}
	eng, err := actuarial.NewEngine(tab, model, actuarial.Config{})
	if err != nil {
		log.Fatal(err)
	}
	calc, err := policy.NewCalculator(eng)
	if err != nil {
		log.Fatal(err)
	}

	contract := policy.Policy{
		Kind:     policy.Endowment,
		IssueAge: 60,
		Term:     10,
		Benefit:  100000,
	}

	single, err := calc.SinglePremium(contract)
	if err != nil {
		log.Fatal(err)
	}
	annual, err := calc.NetPremium(contract)
	if err != nil {
		log.Fatal(err)
	}
	reserve, err := calc.ReserveAt(contract, 5)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Net single premium: %.2f\n", single)
	fmt.Printf("Annual net premium: %.2f\n", annual)
	fmt.Printf("Reserve at duration 5: %.2f\n", reserve.Prospective)
}
