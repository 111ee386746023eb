package dao

const (
	// CollectionUser 存储同步自身份服务的用户信息的表，_id为身份服务subject id。
	CollectionUser = "users"

	// CollectionInterview 存储面试信息的表，callId与candidateId建有索引。
	CollectionInterview = "interviews"
)
