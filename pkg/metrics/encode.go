package metrics

import (
	"bytes"
	"sort"
	"strconv"
	"strings"
)

// encodeBatch renders samples in the collector's line format, one sample
// per line:
//
//	<name>{<label>="<value>",...} <value> <timestamp>
//
// The value is the duration in milliseconds, the timestamp unix
// milliseconds. Labels merge the monitor's constant labels with the
// sample's own; keys are sorted for a stable wire form.
func encodeBatch(batch []Sample, constLabels map[string]string) []byte {
	var buf bytes.Buffer
	for _, s := range batch {
		writeLine(&buf, s, constLabels)
	}
	return buf.Bytes()
}

func writeLine(buf *bytes.Buffer, s Sample, constLabels map[string]string) {
	buf.WriteString(s.Name)

	merged := make(map[string]string, len(constLabels)+len(s.Labels))
	for k, v := range constLabels {
		merged[k] = v
	}
	for k, v := range s.Labels {
		merged[k] = v
	}

	if len(merged) > 0 {
		keys := make([]string, 0, len(merged))
		for k := range merged {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(k)
			buf.WriteString(`="`)
			buf.WriteString(escapeLabel(merged[k]))
			buf.WriteByte('"')
		}
		buf.WriteByte('}')
	}

	buf.WriteByte(' ')
	buf.WriteString(strconv.FormatFloat(s.Duration.Seconds()*1000, 'f', -1, 64))
	buf.WriteByte(' ')
	buf.WriteString(strconv.FormatInt(s.At.UnixMilli(), 10))
	buf.WriteByte('\n')
}

func escapeLabel(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return v
}
