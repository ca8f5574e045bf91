package netconf

import (
	"bytes"
	"fmt"
	"strings"
)

// Artifact names in the compiled output directory.
const (
	ArtifactDiagram  = "segment-diagram.dot"
	ArtifactSegments = "segments.md"
	ArtifactAudit    = "audit.csv"
	ArtifactManifest = "manifest"
	ArtifactEapUsers = "eap_users"
	ArtifactHash     = "last"
	ArtifactPrevHash = "last.prev"
)

const diagramHeader = `digraph g {
    size="6,6";
    node [color=lightblue2, style=filled];
`

const diagramFooter = "}\n"

const tableHeader = `| cell | segment | lan | vlan | owner | description |
| --- | --- | --- | --- | --- | --- |
`

// Renderer is implemented by entities that appear in the topology outputs.
type Renderer interface {
	// Diagram returns the graph node and edge lines for the entity.
	Diagram() string
	// TableRow returns one markdown table row, newline terminated.
	TableRow() string
}

var _ Renderer = (*VLAN)(nil)

// Diagram returns the VLAN's graph node and its initiate edges.
func (v *VLAN) Diagram() string {
	var b strings.Builder
	fmt.Fprintf(&b, "    %q [label=%q];\n", v.Name, fmt.Sprintf("%s (%d)", v.Name, v.Number))
	for _, target := range v.Initiate {
		fmt.Fprintf(&b, "    %q -> %q;\n", v.Name, target)
	}
	return b.String()
}

// TableRow returns the VLAN as one markdown table row.
func (v *VLAN) TableRow() string {
	return fmt.Sprintf("| %s | %s | %s | %d | %s | %s |\n",
		cell(v.Cell), cell(v.Name), cell(v.LAN), v.Number, cell(v.Owner), cell(v.Description))
}

// cell escapes pipes so free text cannot break the table layout.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// RenderTopology renders the diagram and table artifacts. VLANs are emitted in
// name order so source reorderings do not change the output.
func RenderTopology(vlans []*VLAN) (diagram []byte, table []byte) {
	var d, t bytes.Buffer
	d.WriteString(diagramHeader)
	t.WriteString(tableHeader)
	for _, v := range sortedVLANs(vlans) {
		var r Renderer = v
		d.WriteString(r.Diagram())
		t.WriteString(r.TableRow())
	}
	d.WriteString(diagramFooter)
	return d.Bytes(), t.Bytes()
}

// RenderAudit renders the sorted audit trail, one user,vlan,mac row per line.
func RenderAudit(m *Manifest) []byte {
	return renderLines(m.AuditLines())
}

// RenderManifest renders the sorted user set, one name per line.
func RenderManifest(m *Manifest) []byte {
	return renderLines(m.UserNames())
}

func renderLines(lines []string) []byte {
	var b bytes.Buffer
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.Bytes()
}
