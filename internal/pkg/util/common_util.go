package util

import (
	"strings"
)

// NormalizeHandle 去掉 @ 前缀及首尾空白
func NormalizeHandle(handle string) string {
	return strings.TrimSpace(strings.ReplaceAll(handle, "@", ""))
}

// UniqueUint64 去重并保持原顺序
func UniqueUint64(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	res := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res
}
