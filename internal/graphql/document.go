package graphql

import (
	"fmt"
	"sort"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Operation is a parsed, single-operation GraphQL document.
type Operation struct {
	Name      string
	Kind      string
	Variables []string
	Source    string
}

// Document parses query and checks it holds exactly one named operation.
func Document(query string) (*Operation, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "document", Input: query})
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	if len(doc.Operations) != 1 {
		return nil, fmt.Errorf("document must contain exactly one operation, got %d", len(doc.Operations))
	}

	def := doc.Operations[0]
	if def.Name == "" {
		return nil, fmt.Errorf("operation must be named")
	}

	op := &Operation{
		Name:   def.Name,
		Kind:   string(def.Operation),
		Source: query,
	}
	for _, v := range def.VariableDefinitions {
		op.Variables = append(op.Variables, v.Variable)
	}
	sort.Strings(op.Variables)
	return op, nil
}

// MustDocument is Document for package-level query declarations.
func MustDocument(query string) *Operation {
	op, err := Document(query)
	if err != nil {
		panic(err)
	}
	return op
}

// Request builds a request for this operation. Every key in vars must be
// a declared variable; declared variables may be omitted.
func (o *Operation) Request(vars map[string]any) (Request, error) {
	for k := range vars {
		i := sort.SearchStrings(o.Variables, k)
		if i == len(o.Variables) || o.Variables[i] != k {
			return Request{}, fmt.Errorf("operation %s has no variable $%s", o.Name, k)
		}
	}
	return Request{
		OperationName: o.Name,
		Query:         o.Source,
		Variables:     vars,
	}, nil
}
