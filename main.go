package main

import "chatrelay/cmd"

// @title chatrelay API
// @version 1.0
// @description 认证聊天中继服务：注册登录后将消息转发给生成式 AI，并保存聊天记录
// @host localhost:5000
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// version 构建时通过 -ldflags "-X main.version=..." 注入
var version = "v1.0.0"

func main() {
	cmd.Execute(version)
}
