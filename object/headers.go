package object

import (
	"bytes"
	"strings"
)

// ExtraHeader is a header decoded from a commit or tag object that this
// package does not give a typed field of its own (everything except
// tree/parent/author/committer/tagger/object/type/tag/gpgsig). Continuation
// lines are folded into Value, one leading space stripped from each and
// joined back in with "\n".
type ExtraHeader struct {
	Key   string
	Value string
}

// splitHeaderSection splits raw at its first blank line into the header
// block (including its own trailing newline) and the message that
// follows. A blank line inside a multi-line header value is never truly
// empty -- git writes a lone space for it -- so the first "\n\n" is
// always the real header/message boundary.
func splitHeaderSection(raw []byte) (headers, message []byte) {
	idx := bytes.Index(raw, []byte("\n\n"))
	if idx < 0 {
		return raw, nil
	}
	return raw[:idx+1], raw[idx+2:]
}

func decodeHeaders(section []byte) []ExtraHeader {
	var headers []ExtraHeader
	trimmed := strings.TrimSuffix(string(section), "\n")
	if trimmed == "" {
		return nil
	}
	for _, line := range strings.Split(trimmed, "\n") {
		if strings.HasPrefix(line, " ") {
			if len(headers) == 0 {
				continue
			}
			headers[len(headers)-1].Value += "\n" + line[1:]
			continue
		}
		key, value, _ := strings.Cut(line, " ")
		headers = append(headers, ExtraHeader{Key: key, Value: value})
	}
	return headers
}

func headerValue(headers []ExtraHeader, key string) (string, bool) {
	for _, h := range headers {
		if h.Key == key {
			return h.Value, true
		}
	}
	return "", false
}

func encodeHeaders(headers []ExtraHeader) []byte {
	var buf bytes.Buffer
	for _, h := range headers {
		if h.Value == "" {
			buf.WriteString(h.Key)
			buf.WriteByte('\n')
			continue
		}
		lines := strings.Split(h.Value, "\n")
		buf.WriteString(h.Key)
		buf.WriteByte(' ')
		buf.WriteString(lines[0])
		buf.WriteByte('\n')
		for _, l := range lines[1:] {
			buf.WriteByte(' ')
			buf.WriteString(l)
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}
