package plutus

import (
	"strconv"
	"strings"
)

// String forms follow the notation used in evaluator diagnostics:
//   42  #a1b2  [1, 2]  {#aa: 1}  Constr 0 [#01, 2]

func (i Int) String() string {
	if i.v == nil {
		return "0"
	}
	return i.v.String()
}

func (b Bytes) String() string {
	return "#" + b.Hex()
}

func (l List) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	writeItems(&sb, l.items)
	sb.WriteByte(']')
	return sb.String()
}

func (m Map) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, p := range m.pairs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(dataString(p.Key))
		sb.WriteString(": ")
		sb.WriteString(dataString(p.Value))
	}
	sb.WriteByte('}')
	return sb.String()
}

func (c Constr) String() string {
	var sb strings.Builder
	sb.WriteString("Constr ")
	sb.WriteString(strconv.FormatUint(c.tag, 10))
	sb.WriteString(" [")
	writeItems(&sb, c.fields)
	sb.WriteByte(']')
	return sb.String()
}

func writeItems(sb *strings.Builder, items []Data) {
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(dataString(item))
	}
}

func dataString(d Data) string {
	if d == nil {
		return "<nil>"
	}
	return d.String()
}
