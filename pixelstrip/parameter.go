package pixelstrip

import "errors"

// ParamKind tells a connected app what kind of UI control to show for a
// parameter (slider, color wheel, checkbox).
type ParamKind int

const (
	KIND_INTEGER ParamKind = iota
	KIND_FLOAT
	KIND_COLOR
	KIND_BOOLEAN
)

func (k ParamKind) String() string {
	switch k {
	case KIND_INTEGER:
		return "integer"
	case KIND_FLOAT:
		return "float"
	case KIND_COLOR:
		return "color"
	case KIND_BOOLEAN:
		return "boolean"
	}
	return "unknown"
}

var (
	ErrUnknownParameter = errors.New("unknown parameter name")
	ErrKindMismatch     = errors.New("parameter kind mismatch")
)

// Parameter is one typed, named configuration slot of an effect. Kind never
// changes after construction; Value always holds the Go type matching Kind
// (int, float64, uint32 or bool). Min/Max are slider hints for the app.
type Parameter struct {
	Name  string
	Kind  ParamKind
	Value interface{}
	Min   float64
	Max   float64
}

// Set replaces the stored value after checking it against Kind. A mismatch
// leaves the stored value unchanged and returns ErrKindMismatch.
func (p *Parameter) Set(value interface{}) error {
	switch p.Kind {
	case KIND_INTEGER:
		if v, ok := value.(int); ok {
			p.Value = v
			return nil
		}
	case KIND_FLOAT:
		if v, ok := value.(float64); ok {
			p.Value = v
			return nil
		}
	case KIND_COLOR:
		if v, ok := value.(uint32); ok {
			p.Value = v
			return nil
		}
	case KIND_BOOLEAN:
		if v, ok := value.(bool); ok {
			p.Value = v
			return nil
		}
	}
	return ErrKindMismatch
}

func (p *Parameter) IntValue() int {
	v, _ := p.Value.(int)
	return v
}

func (p *Parameter) FloatValue() float64 {
	v, _ := p.Value.(float64)
	return v
}

func (p *Parameter) ColorValue() uint32 {
	v, _ := p.Value.(uint32)
	return v
}

func (p *Parameter) BoolValue() bool {
	v, _ := p.Value.(bool)
	return v
}

// ParamRegistry is the uniform parameter surface every effect exposes.
// Parameters keep their construction order; lookup is by exact name.
type ParamRegistry struct {
	params []*Parameter
}

func (r *ParamRegistry) AddParameter(p *Parameter) {
	r.params = append(r.params, p)
}

func (r *ParamRegistry) ParameterCount() int {
	return len(r.params)
}

// Parameter returns the parameter at idx, nil if out of range.
func (r *ParamRegistry) Parameter(idx int) *Parameter {
	if idx < 0 || idx >= len(r.params) {
		return nil
	}
	return r.params[idx]
}

// LookupParameter finds a parameter by its canonical name, nil if absent.
func (r *ParamRegistry) LookupParameter(name string) *Parameter {
	for _, p := range r.params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// SetParameter is the kind-checked set-by-name used by the command protocol
// and the configuration codec.
func (r *ParamRegistry) SetParameter(name string, value interface{}) error {
	p := r.LookupParameter(name)
	if p == nil {
		return ErrUnknownParameter
	}
	return p.Set(value)
}
