package ledger

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// AccountNode is a node in the account hierarchy. The root node has an empty
// Name and a nil Parent; every other node's Name is its full colon-separated
// account path. Nodes are created for every opened account and for any
// intermediate segment that was never itself opened (e.g. "Assets:US" exists
// here even if only "Assets:US:Checking" was ever opened).
type AccountNode struct {
	Name     string
	Account  *Account // nil for the root and for unopened intermediate segments
	Parent   *AccountNode
	Children []*AccountNode
}

// BuildAccountTree assembles the account hierarchy as a navigable node graph,
// rooted at an empty-name node, from the ledger's currently open accounts.
func (l *Ledger) BuildAccountTree() *AccountNode {
	root := &AccountNode{Name: ""}
	nodes := map[string]*AccountNode{"": root}

	ensure := func(name string) *AccountNode {
		if n, ok := nodes[name]; ok {
			return n
		}
		n := &AccountNode{Name: name}
		nodes[name] = n
		return n
	}

	var names []string
	l.forEachAccount(func(acc *Account) bool {
		names = append(names, string(acc.Name))
		return true
	})
	sort.Strings(names)

	for _, name := range names {
		parts := strings.Split(name, ":")
		parentName := ""
		for i := 1; i <= len(parts); i++ {
			path := strings.Join(parts[:i], ":")
			node := ensure(path)
			if node.Parent == nil && path != "" {
				parent := ensure(parentName)
				node.Parent = parent
				parent.Children = append(parent.Children, node)
			}
			parentName = path
		}
		if acc, ok := l.GetAccount(name); ok {
			ensure(name).Account = acc
		}
	}

	for _, n := range nodes {
		sort.Slice(n.Children, func(i, j int) bool { return n.Children[i].Name < n.Children[j].Name })
	}

	return root
}

// Find looks up a descendant (or itself) by full account path; pass "" for
// the root.
func (n *AccountNode) Find(name string) *AccountNode {
	if n.Name == name {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// SubtreeBalance sums this node's own balance, if it is an opened account,
// with every descendant's balance.
func (n *AccountNode) SubtreeBalance() map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal)
	if n.Account != nil {
		for currency, amount := range n.Account.GetBalance() {
			result[currency] = result[currency].Add(amount)
		}
	}
	for _, c := range n.Children {
		for currency, amount := range c.SubtreeBalance() {
			result[currency] = result[currency].Add(amount)
		}
	}
	return result
}
