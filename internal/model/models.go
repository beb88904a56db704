package model

// All 返回需要迁移的全部模型，按外键依赖排序
func All() []interface{} {
	return []interface{}{&User{}, &Group{}, &Post{}, &Comment{}, &Follow{}, &Session{}}
}
