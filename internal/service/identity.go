package service

import "context"

// Identity 当前登录用户，来自鉴权层
type Identity struct {
	ID    string
	Email string
}

func (i Identity) Valid() bool {
	return i.ID != ""
}

// AvatarResolver 将头像引用 (对象存储 key 或 URL) 转换为可展示地址
type AvatarResolver interface {
	Resolve(ctx context.Context, ref string) string
}

type passthroughAvatars struct{}

func (passthroughAvatars) Resolve(_ context.Context, ref string) string { return ref }

// PassthroughAvatars 原样返回头像引用
var PassthroughAvatars AvatarResolver = passthroughAvatars{}
