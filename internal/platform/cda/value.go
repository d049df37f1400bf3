package cda

// ValueShape tags the possible shapes of an observation value. Shape
// selection is a pure decision over the record's declared fields, never a
// runtime type inspection, and never depends on field arrival order.
type ValueShape int

const (
	// ShapeAuto lets the engine infer the shape.
	ShapeAuto ValueShape = iota
	// ShapeQuantity emits a PQ (physical quantity) value with a unit.
	ShapeQuantity
	// ShapeCoded emits a CD (coded) value.
	ShapeCoded
	// ShapeText emits an ST (string) value.
	ShapeText
)

// Value is the tagged union over the emittable value shapes. Exactly the
// fields relevant to the resolved shape are consulted when building the
// element.
type Value struct {
	Shape ValueShape

	// Quantity shape.
	Magnitude string
	Unit      string

	// Coded shape.
	Code    string
	System  string
	Display string

	// Text shape.
	Text string
}

// ResolveShape applies the fixed precedence: an explicit shape override
// wins; otherwise a present unit selects the quantity shape; otherwise the
// value is free text. The coded shape is only ever reached through an
// explicit override.
func ResolveShape(override ValueShape, unit string) ValueShape {
	if override != ShapeAuto {
		return override
	}
	if unit != "" {
		return ShapeQuantity
	}
	return ShapeText
}

// Node builds the value element for the resolved shape. A required value
// that is entirely absent becomes a nullFlavor marker.
func (v Value) Node(ctx *BuildContext, required bool) *Node {
	switch ResolveShape(v.Shape, v.Unit) {
	case ShapeQuantity:
		d, out := Decide(v.Magnitude, required, CategoryText)
		n := NewNode("value").SetAttr("xsi:type", "PQ")
		if d == Marker {
			return n.SetAttr("nullFlavor", out)
		}
		if d == Omit {
			return nil
		}
		n.SetAttr("value", out)
		if v.Unit != "" {
			n.SetAttr("unit", v.Unit)
		}
		return n
	case ShapeCoded:
		d, out := Decide(v.Code, required, CategoryCoded)
		n := NewNode("value").SetAttr("xsi:type", "CD")
		if d == Marker {
			return n.SetAttr("nullFlavor", out)
		}
		if d == Omit {
			return nil
		}
		n.SetAttr("code", out)
		if v.System != "" {
			cs := ctx.Vocab.Resolve(v.System)
			n.SetAttr("codeSystem", cs.OID)
			if cs.Name != "" {
				n.SetAttr("codeSystemName", cs.Name)
			}
		}
		if v.Display != "" {
			n.SetAttr("displayName", v.Display)
		}
		return n
	default:
		text := v.Text
		if text == "" {
			text = v.Magnitude
		}
		d, out := Decide(text, required, CategoryText)
		n := NewNode("value").SetAttr("xsi:type", "ST")
		if d == Marker {
			return n.SetAttr("nullFlavor", out)
		}
		if d == Omit {
			return nil
		}
		return n.SetText(out)
	}
}
