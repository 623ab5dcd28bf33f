package dict

import (
	"strconv"
	"strings"

	"ibdninja/internal/ibderr"
)

// Properties is a string-to-string map built by splitting a payload on ';'
// and then each token on its first '='. An optional whitelist of keys can
// be supplied; construction fails if any key falls outside it.
type Properties struct {
	kvs  map[string]string
	keys map[string]struct{}
}

// ParseProperties parses opt like "key1=val1;key2=val2;" into a Properties
// value. An empty or blank opt yields an empty, valid Properties.
func ParseProperties(opt string, whitelist ...string) (Properties, error) {
	p := Properties{kvs: map[string]string{}}
	if len(whitelist) > 0 {
		p.keys = map[string]struct{}{}
		for _, k := range whitelist {
			p.keys[k] = struct{}{}
		}
	}

	for _, tok := range strings.Split(opt, ";") {
		if tok == "" {
			continue
		}
		kv := strings.SplitN(tok, "=", 2)
		key := kv[0]
		value := ""
		if len(kv) == 2 {
			value = kv[1]
		}
		if key == "" {
			return Properties{}, ibderr.New(ibderr.CorruptSDI, "empty Properties key in %q", opt)
		}
		if !p.validKey(key) {
			return Properties{}, ibderr.New(ibderr.CorruptSDI, "Properties key %q is not in the allowed set", key)
		}
		p.kvs[key] = value
	}
	return p, nil
}

func (p Properties) validKey(key string) bool {
	if p.keys == nil {
		return true
	}
	_, ok := p.keys[key]
	return ok
}

// Exists reports whether key is present.
func (p Properties) Exists(key string) bool {
	_, ok := p.kvs[key]
	return ok
}

// GetString returns key's raw string value.
func (p Properties) GetString(key string) (string, bool) {
	v, ok := p.kvs[key]
	return v, ok
}

// GetUint parses key's value as an unsigned integer.
func (p Properties) GetUint(key string) (uint64, bool) {
	v, ok := p.kvs[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// GetBool parses key's value the way the source engine does: "true" or any
// leading-sign all-digit string is true, "false"/"0" is false.
func (p Properties) GetBool(key string) (bool, bool) {
	v, ok := p.kvs[key]
	if !ok {
		return false, false
	}
	switch v {
	case "true":
		return true, true
	case "false", "0":
		return false, true
	}
	trimmed := strings.TrimLeft(v, "+-")
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return false, false
		}
	}
	return true, true
}
