package s1_chain

import "github.com/wonny/optiondesk/internal/contracts"

// Split partitions a chain into call-only and put-only views, preserving order.
// An empty chain yields an empty partition together with contracts.ErrEmptyInput.
func Split(chain contracts.Chain) (contracts.Partition, error) {
	p := contracts.Partition{
		Calls: make(contracts.Chain, 0, len(chain)/2),
		Puts:  make(contracts.Chain, 0, len(chain)/2),
	}
	if len(chain) == 0 {
		return p, contracts.ErrEmptyInput
	}

	for _, c := range chain {
		switch c.Type {
		case contracts.Call:
			p.Calls = append(p.Calls, c)
		case contracts.Put:
			p.Puts = append(p.Puts, c)
		}
	}
	return p, nil
}

// Merge recombines a partition into one sorted chain
func Merge(p contracts.Partition) contracts.Chain {
	chain := make(contracts.Chain, 0, len(p.Calls)+len(p.Puts))
	chain = append(chain, p.Calls...)
	chain = append(chain, p.Puts...)
	chain.Sort()
	return chain
}
