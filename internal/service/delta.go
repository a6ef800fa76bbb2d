package service

import "FollowTracker/internal/model"

// DiffNewIDs 计算 observed − known，重复 ID 只算一次；known 中有而 observed 中没有的（取关）不处理
func DiffNewIDs(known map[string]struct{}, observed []model.ObservedAccount) map[string]struct{} {
	newIDs := make(map[string]struct{})
	for _, o := range observed {
		if _, ok := known[o.ExternalID]; ok {
			continue
		}
		newIDs[o.ExternalID] = struct{}{}
	}
	return newIDs
}

// dedupeObserved 同一次输入中重复的 ID 仅保留第一次出现
func dedupeObserved(observed []model.ObservedAccount) []model.ObservedAccount {
	seen := make(map[string]struct{}, len(observed))
	res := make([]model.ObservedAccount, 0, len(observed))
	for _, o := range observed {
		if _, ok := seen[o.ExternalID]; ok {
			continue
		}
		seen[o.ExternalID] = struct{}{}
		res = append(res, o)
	}
	return res
}
