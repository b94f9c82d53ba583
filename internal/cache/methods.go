package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// MethodCacheability defines how a method should be cached
type MethodCacheability int

const (
	// NotCacheable - method should never be cached
	NotCacheable MethodCacheability = iota
	// AlwaysCacheable - result is fixed for the lifetime of the chain
	AlwaysCacheable
	// CacheableWithBlockHash - cacheable only when the block hash param is given
	CacheableWithBlockHash
	// CacheableWithBlockNumber - cacheable only when the block number param is given
	CacheableWithBlockNumber
)

// methodCacheRules maps methods to their cacheability rules
var methodCacheRules = map[string]MethodCacheability{
	"system_chain":      AlwaysCacheable,
	"system_chainType":  AlwaysCacheable,
	"system_name":       AlwaysCacheable,
	"system_properties": AlwaysCacheable,

	// Data addressed by block hash never changes
	"chain_getBlock":          CacheableWithBlockHash,
	"chain_getHeader":         CacheableWithBlockHash,
	"state_getMetadata":       CacheableWithBlockHash,
	"state_getRuntimeVersion": CacheableWithBlockHash,
	"state_getStorage":        CacheableWithBlockHash,
	"state_getStorageHash":    CacheableWithBlockHash,
	"state_getStorageSize":    CacheableWithBlockHash,
	"state_call":              CacheableWithBlockHash,

	"chain_getBlockHash": CacheableWithBlockNumber,
}

// blockParamIndex is the position of the block hash/number param per method
var blockParamIndex = map[string]int{
	"chain_getBlock":          0,
	"chain_getHeader":         0,
	"chain_getBlockHash":      0,
	"state_getMetadata":       0,
	"state_getRuntimeVersion": 0,
	"state_getStorage":        1,
	"state_getStorageHash":    1,
	"state_getStorageSize":    1,
	"state_call":              2,
}

// blockHashHexLen is the length of a 0x-prefixed 32-byte hash
const blockHashHexLen = 2 + 64

var (
	disabledMethods   = make(map[string]bool)
	disabledMethodsMu sync.RWMutex
)

// SetDisabledMethods sets the list of methods that should not be cached
func SetDisabledMethods(methods []string) {
	disabledMethodsMu.Lock()
	defer disabledMethodsMu.Unlock()
	disabledMethods = make(map[string]bool)
	for _, method := range methods {
		disabledMethods[method] = true
	}
}

// IsMethodDisabled checks if a method is in the disabled list
func IsMethodDisabled(method string) bool {
	disabledMethodsMu.RLock()
	defer disabledMethodsMu.RUnlock()
	return disabledMethods[method]
}

// IsCacheable checks if a request is cacheable based on method and params
func IsCacheable(method string, params json.RawMessage) bool {
	if IsMethodDisabled(method) {
		return false
	}

	rule, exists := methodCacheRules[method]
	if !exists {
		return false
	}

	switch rule {
	case AlwaysCacheable:
		return true
	case CacheableWithBlockHash:
		param, ok := blockParam(method, params)
		return ok && isBlockHash(param)
	case CacheableWithBlockNumber:
		param, ok := blockParam(method, params)
		return ok && isBlockNumber(param)
	default:
		return false
	}
}

// blockParam returns the block param of a request, if present and not null
func blockParam(method string, params json.RawMessage) (json.RawMessage, bool) {
	idx, ok := blockParamIndex[method]
	if !ok || len(params) == 0 {
		return nil, false
	}

	var paramsArray []json.RawMessage
	if err := json.Unmarshal(params, &paramsArray); err != nil {
		return nil, false
	}
	if idx >= len(paramsArray) {
		// Omitted block param means the best block
		return nil, false
	}

	param := paramsArray[idx]
	if string(param) == "null" {
		return nil, false
	}
	return param, true
}

// isBlockHash checks for a 0x-prefixed 32-byte hex string
func isBlockHash(param json.RawMessage) bool {
	var s string
	if err := json.Unmarshal(param, &s); err != nil {
		return false
	}
	if len(s) != blockHashHexLen || !strings.HasPrefix(s, "0x") {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

// isBlockNumber accepts a JSON number or a 0x-prefixed hex number
func isBlockNumber(param json.RawMessage) bool {
	var n uint64
	if err := json.Unmarshal(param, &n); err == nil {
		return true
	}

	var s string
	if err := json.Unmarshal(param, &s); err != nil {
		return false
	}
	if !strings.HasPrefix(s, "0x") || len(s) == 2 {
		return false
	}
	for _, c := range s[2:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

// GenerateCacheKey creates a unique cache key for a request
func GenerateCacheKey(network, method string, params json.RawMessage) string {
	normalizedParams := normalizeParams(params)
	hash := sha256.Sum256(normalizedParams)
	paramsHash := hex.EncodeToString(hash[:8])

	return network + ":" + method + ":" + paramsHash
}

// normalizeParams normalizes JSON params for consistent hashing
func normalizeParams(params json.RawMessage) []byte {
	if len(params) == 0 {
		return []byte("[]")
	}

	var data interface{}
	if err := json.Unmarshal(params, &data); err != nil {
		return params
	}

	result, err := json.Marshal(normalizeValue(data))
	if err != nil {
		return params
	}

	return result
}

// normalizeValue recursively normalizes a JSON value
func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return normalizeMap(val)
	case []interface{}:
		result := make([]interface{}, len(val))
		for i, item := range val {
			result[i] = normalizeValue(item)
		}
		return result
	case string:
		// Hex hashes and keys are case-insensitive; runtime API names are not
		if strings.HasPrefix(val, "0x") || strings.HasPrefix(val, "0X") {
			return "0x" + strings.ToLower(val[2:])
		}
		return val
	default:
		return val
	}
}

// normalizeMap normalizes a map by sorting keys
func normalizeMap(m map[string]interface{}) map[string]interface{} {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make(map[string]interface{}, len(m))
	for _, k := range keys {
		result[k] = normalizeValue(m[k])
	}
	return result
}
