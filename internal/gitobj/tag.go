package gitobj

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"
)

// Tag is an annotated tag object. josh never rewrites tag objects
// themselves: objstore.Store.LookupCommit peels a tag down to the commit
// it points at, so a refs/tags/* ref is filtered as that commit. The type
// also lets the object database round-trip anything already in the
// shared repository without erroring out.
type Tag struct {
	Object     []byte
	ObjectType ObjectType
	Name       string
	Tagger     string

	Message string
}

func (t *Tag) Extract() (message string, signature string) {
	if i := strings.Index(t.Message, "-----BEGIN"); i > 0 {
		return t.Message[:i], t.Message[i:]
	}
	return t.Message, ""
}

func (t *Tag) StrictMessage() string {
	m, _ := t.Extract()
	return m
}

func (t *Tag) Decode(_ hash.Hash, r io.Reader, size int64) (int, error) {
	br := bufio.NewReader(io.LimitReader(r, size))

	var finishedHeaders bool
	var message strings.Builder

	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return 0, readErr
		}

		if finishedHeaders {
			message.WriteString(line)
		} else {
			text := strings.TrimSuffix(line, "\n")
			if len(text) == 0 {
				finishedHeaders = true
				continue
			}

			field, value, ok := strings.Cut(text, " ")
			if !ok {
				return 0, fmt.Errorf("git/object: invalid tag header: %s", text)
			}

			switch field {
			case "object":
				sha, err := hex.DecodeString(value)
				if err != nil {
					return 0, fmt.Errorf("git/object: unable to decode SHA-1: %s", err)
				}
				t.Object = sha
			case "type":
				t.ObjectType = ObjectTypeFromString(value)
			case "tag":
				t.Name = value
			case "tagger":
				t.Tagger = value
			default:
				return 0, fmt.Errorf("git/object: unknown tag header: %s", field)
			}
		}
		if readErr == io.EOF {
			break
		}
	}

	t.Message = message.String()
	return int(size), nil
}

func (t *Tag) Encode(w io.Writer) (int, error) {
	headers := []string{
		fmt.Sprintf("object %s", hex.EncodeToString(t.Object)),
		fmt.Sprintf("type %s", t.ObjectType),
		fmt.Sprintf("tag %s", t.Name),
		fmt.Sprintf("tagger %s", t.Tagger),
	}

	return fmt.Fprintf(w, "%s\n\n%s", strings.Join(headers, "\n"), t.Message)
}

func (t *Tag) Equal(other *Tag) bool {
	if (t == nil) != (other == nil) {
		return false
	}
	if t != nil {
		return bytes.Equal(t.Object, other.Object) &&
			t.ObjectType == other.ObjectType &&
			t.Name == other.Name &&
			t.Tagger == other.Tagger &&
			t.Message == other.Message
	}
	return true
}

func (t *Tag) Type() ObjectType {
	return TagObjectType
}
