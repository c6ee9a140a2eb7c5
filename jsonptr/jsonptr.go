// Package jsonptr implements RFC 6901 JSON pointer paths as used by the
// patch wire format: segments joined with "/", with "~1" escaping a literal
// "/" and "~0" escaping a literal "~".
package jsonptr

import "strings"

// Escape encodes a single path segment.
func Escape(seg string) string {
	if !strings.ContainsAny(seg, "~/") {
		return seg
	}
	seg = strings.ReplaceAll(seg, "~", "~0")
	return strings.ReplaceAll(seg, "/", "~1")
}

// Unescape decodes a single path segment. Unescape(Escape(s)) == s.
func Unescape(seg string) string {
	if !strings.Contains(seg, "~") {
		return seg
	}
	seg = strings.ReplaceAll(seg, "~1", "/")
	return strings.ReplaceAll(seg, "~0", "~")
}

// Join builds a pointer from unescaped segments. Join(nil) is "", the
// pointer of a root.
func Join(segs []string) string {
	if len(segs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, seg := range segs {
		b.WriteByte('/')
		b.WriteString(Escape(seg))
	}
	return b.String()
}

// Split decomposes a pointer into unescaped segments. "" and "/" both
// denote the root and yield no segments.
func Split(ptr string) []string {
	if ptr == "" || ptr == "/" {
		return nil
	}
	ptr = strings.TrimPrefix(ptr, "/")
	parts := strings.Split(ptr, "/")
	for i := range parts {
		parts[i] = Unescape(parts[i])
	}
	return parts
}

// Append extends a pointer with one more unescaped segment.
func Append(ptr, seg string) string {
	return ptr + "/" + Escape(seg)
}

// Rebase strips the pointer of an ancestor from a descendant pointer,
// yielding the descendant's pointer relative to that ancestor. The second
// result is false when ptr is not under base.
func Rebase(ptr, base string) (string, bool) {
	if base == "" {
		return ptr, true
	}
	if ptr == base {
		return "", true
	}
	if strings.HasPrefix(ptr, base+"/") {
		return ptr[len(base):], true
	}
	return ptr, false
}
