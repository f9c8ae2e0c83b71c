package llidl

import (
	"sort"

	"github.com/llbase/go-llbase/llsd"
)

// Suite is a parsed collection of LLIDL resource descriptions: a mapping
// from resource name to request/response specifications plus the variant
// definitions they reference. A Suite is immutable after parsing and safe
// for concurrent use; rebuilding and republishing a Suite at runtime is the
// caller's concern.
type Suite struct {
	resources map[string]resource
	variants  map[string][]*node
	resSeq    []string // declaration order, for tooling
}

type resource struct {
	request  *node
	response *node
}

func newSuite() *Suite {
	return &Suite{
		resources: map[string]resource{},
		variants:  map[string][]*node{},
	}
}

func (s *Suite) hasResource(name string) bool {
	_, ok := s.resources[name]
	return ok
}

func (s *Suite) addResource(name string, req, res *node) {
	s.resources[name] = resource{request: req, response: res}
	s.resSeq = append(s.resSeq, name)
}

func (s *Suite) addVariant(name string, v *node) {
	s.variants[name] = append(s.variants[name], v)
}

// variantOptions returns the alternatives for a variant name in declaration
// order; nil for an unregistered name (the parser's completeness check makes
// that unreachable for parsed suites, but matching stays defensive).
func (s *Suite) variantOptions(name string) []*node {
	return s.variants[name]
}

// missingVariants returns the sorted set of variant names referenced by any
// resource but never defined.
func (s *Suite) missingVariants() []string {
	refs := map[string]bool{}
	for _, res := range s.resources {
		variantsReferenced(res.request, refs)
		variantsReferenced(res.response, refs)
	}
	var missing []string
	for name := range refs {
		if _, ok := s.variants[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// ResourceNames returns every resource name in declaration order.
func (s *Suite) ResourceNames() []string {
	out := make([]string, len(s.resSeq))
	copy(out, s.resSeq)
	return out
}

// Request returns the request specification for a resource.
func (s *Suite) Request(name string) (*Value, error) {
	res, ok := s.resources[name]
	if !ok {
		return nil, &UnknownResourceError{Name: name}
	}
	return &Value{root: res.request, suite: s}, nil
}

// Response returns the response specification for a resource.
func (s *Suite) Response(name string) (*Value, error) {
	res, ok := s.resources[name]
	if !ok {
		return nil, &UnknownResourceError{Name: name}
	}
	return &Value{root: res.response, suite: s}, nil
}

// MatchRequest compares actual to the named resource's request description.
// The error is non-nil only for an unknown resource name.
func (s *Suite) MatchRequest(name string, actual llsd.Value) (bool, error) {
	v, err := s.Request(name)
	if err != nil {
		return false, err
	}
	return v.Match(actual), nil
}

// MatchResponse compares actual to the named resource's response
// description.
func (s *Suite) MatchResponse(name string, actual llsd.Value) (bool, error) {
	v, err := s.Response(name)
	if err != nil {
		return false, err
	}
	return v.Match(actual), nil
}

// ValidRequest is MatchRequest with the tolerant threshold (defaulted and
// additional drift accepted).
func (s *Suite) ValidRequest(name string, actual llsd.Value) (bool, error) {
	v, err := s.Request(name)
	if err != nil {
		return false, err
	}
	return v.Valid(actual), nil
}

// ValidResponse is MatchResponse with the tolerant threshold.
func (s *Suite) ValidResponse(name string, actual llsd.Value) (bool, error) {
	v, err := s.Response(name)
	if err != nil {
		return false, err
	}
	return v.Valid(actual), nil
}

// CheckRequest compares actual to the named resource's request description
// and returns a diagnostic error when the outcome falls below level.
func (s *Suite) CheckRequest(name string, actual llsd.Value, level Result) error {
	v, err := s.Request(name)
	if err != nil {
		return err
	}
	return v.Check(actual, level)
}

// CheckResponse is CheckRequest for the response side.
func (s *Suite) CheckResponse(name string, actual llsd.Value, level Result) error {
	v, err := s.Response(name)
	if err != nil {
		return err
	}
	return v.Check(actual, level)
}
