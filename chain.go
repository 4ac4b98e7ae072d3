package aspyre

import "fmt"

// stage identifies one of the five fixed groups within a chain.
type stage int

const (
	stageBefore stage = iota
	stageBeforeMethod
	stageMethod
	stageAfterMethod
	stageAfter
)

func (s stage) String() string {
	switch s {
	case stageBefore:
		return "before"
	case stageBeforeMethod:
		return "before_method"
	case stageMethod:
		return "method"
	case stageAfterMethod:
		return "after_method"
	case stageAfter:
		return "after"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// chainEntry is one hook invocation of a resolved chain, carrying the typed
// arguments of the resource that contributed it.
type chainEntry struct {
	stage stage
	hook  HookFunc
	args  Args
}

// UnsupportedMethodError is returned when a chain is resolved for a method
// outside the supported set.
type UnsupportedMethodError struct {
	Method Method
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("unsupported HTTP method %q", string(e.Method))
}

// resolveChain builds the ordered hook chain for a method over the matched
// resources. The five stages run in fixed order: global before and the two
// method stages in match order, then the after-method and global after
// stages in reverse match order. A resource contributes to a stage only when
// it exposes that hook.
func resolveChain(m Method, matches []Match) ([]chainEntry, error) {
	if !httpMethods[m] {
		return nil, &UnsupportedMethodError{Method: m}
	}

	var chain []chainEntry
	for _, mt := range matches {
		if hook := mt.Resource.Before; hook != nil {
			chain = append(chain, chainEntry{stage: stageBefore, hook: hook, args: mt.Args})
		}
	}
	for _, mt := range matches {
		if hook := mt.Resource.method(m).Before; hook != nil {
			chain = append(chain, chainEntry{stage: stageBeforeMethod, hook: hook, args: mt.Args})
		}
	}
	for _, mt := range matches {
		if hook := mt.Resource.method(m).Handle; hook != nil {
			chain = append(chain, chainEntry{stage: stageMethod, hook: hook, args: mt.Args})
		}
	}
	for i := len(matches) - 1; i >= 0; i-- {
		if hook := matches[i].Resource.method(m).After; hook != nil {
			chain = append(chain, chainEntry{stage: stageAfterMethod, hook: hook, args: matches[i].Args})
		}
	}
	for i := len(matches) - 1; i >= 0; i-- {
		if hook := matches[i].Resource.After; hook != nil {
			chain = append(chain, chainEntry{stage: stageAfter, hook: hook, args: matches[i].Args})
		}
	}
	return chain, nil
}
