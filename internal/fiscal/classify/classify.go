// Package classify derives the commercial flow of a transaction (Venda,
// Compra, Transferência) from participant identity, layered with a
// persistent memory of operator corrections keyed by (CFOP, flow).
package classify

import (
	"context"

	"github.com/FelipeCGomes/leitorxml/internal/fiscal/utils"
)

// Flow labels. Corrections may introduce labels outside this set (e.g.
// "Devolução"); these are the defaults the rule base starts from.
const (
	FlowTransfer = "Transferência"
	FlowSale     = "Venda"
	FlowPurchase = "Compra"
	FlowOther    = "Outros"
)

// Memory is the persistent correction overlay consulted before the
// default classification stands.
type Memory interface {
	Get(ctx context.Context, cfop, flow string) (string, bool, error)
}

type Classifier struct {
	branches map[string]struct{}
	memory   Memory
}

// New builds a classifier for the company whose branch CNPJs are given.
// CNPJs are normalized to digits before membership testing. memory may
// be nil, in which case only the default rule applies.
func New(branchCNPJs []string, memory Memory) *Classifier {
	branches := make(map[string]struct{}, len(branchCNPJs))
	for _, c := range branchCNPJs {
		if d := utils.DigitsOnly(c); d != "" {
			branches[d] = struct{}{}
		}
	}
	return &Classifier{branches: branches, memory: memory}
}

func (c *Classifier) isOwnBranch(cnpj string) bool {
	_, ok := c.branches[utils.DigitsOnly(cnpj)]
	return ok
}

// DefaultFlow applies the participant identity rule alone. A document
// issued and received by own branches is a transfer; issued by us to a
// third party, a sale. Anything not issued by us counts as a purchase:
// customer returns land here too and are fixed by the memory overlay.
func (c *Classifier) DefaultFlow(issuerCNPJ, recipientCNPJ string) string {
	issuerOwn := c.isOwnBranch(issuerCNPJ)
	recipientOwn := c.isOwnBranch(recipientCNPJ)

	switch {
	case issuerOwn && recipientOwn:
		return FlowTransfer
	case issuerOwn && !recipientOwn:
		return FlowSale
	case !issuerOwn:
		return FlowPurchase
	}
	return FlowOther
}

// Classify returns the flow label for a transaction, letting a
// remembered correction for (cfop, default flow) override the default.
// Memory read failures fall back to the default label.
func (c *Classifier) Classify(ctx context.Context, cfop, issuerCNPJ, recipientCNPJ string) string {
	flow := c.DefaultFlow(issuerCNPJ, recipientCNPJ)

	if c.memory == nil {
		return flow
	}
	label, found, err := c.memory.Get(ctx, cfop, flow)
	if err != nil || !found {
		return flow
	}
	return label
}
