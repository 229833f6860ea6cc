// Package snail implements a line-oriented text template engine.
//
// A template is plain text in which markers, written with a configurable
// bracket syntax, name the slots to fill. Every source line is classified
// exactly once when the template is parsed:
//
//   - a raw line has no markers and is copied verbatim;
//   - a parameters line holds one or more inline parameter markers;
//   - a reference line holds a single whole-line marker naming another template.
//
// With the default syntax the markers look like this:
//
//	<td><!-- (param)cell --></td>
//	<td><!-- (optional)(param)note --></td>
//	    <!-- (ref)Row -->
//
// Rendering fills parameters from a tree of named values. A scalar fills
// its slot once, a value list repeats the whole line once per element, and
// a reference renders the named template from a registry once per bound
// parameter tree, carrying the literal text around the reference marker
// into every line of the nested output.
//
// # Basic Usage
//
//	parser := snail.NewDefaultParser()
//	table, err := parser.Parse("<table>\n    <!-- (ref)Row -->\n</table>")
//	if err != nil {
//		return err
//	}
//	row, err := parser.Parse("<tr>\n    <td><!-- (param)cell --></td>\n</tr>")
//	if err != nil {
//		return err
//	}
//
//	out, err := table.Render(snail.Params{
//		"Row": snail.SubParametersList{
//			{"cell": snail.ValueList{"1.1", "2.1"}},
//			{"cell": snail.ValueList{"1.2", "2.2"}},
//		},
//	}, snail.Registry{"Row": row})
//
// Templates are immutable once parsed and may be rendered concurrently.
// The package performs no I/O; loading templates and parameters from disk is
// left to the caller.
package snail
