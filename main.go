package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/mooyang-code/exchange-normalizer/internal/app"
)

// Version 构建时通过 -ldflags 注入
var Version = "1.0.0"

var (
	configPath = flag.String("config", "./config/config.yaml", "配置文件路径")
	envFile    = flag.String("env", ".env", "环境变量文件，逗号分隔")
	version    = flag.Bool("version", false, "显示版本信息")
	help       = flag.Bool("help", false, "显示帮助信息")
)

func main() {
	if shouldExit := parseFlags(); shouldExit {
		return
	}

	manager := app.New()
	if err := manager.Initialize(*configPath, strings.Split(*envFile, ",")...); err != nil {
		fmt.Printf("exchange-normalizer 初始化失败: %v\n", err)
		os.Exit(1)
	}
	defer manager.Sync()

	if err := manager.Run(); err != nil {
		manager.GetLogger().Error("exchange-normalizer 启动失败", zap.Error(err))
		manager.Sync()
		os.Exit(1)
	}
}

// parseFlags 解析命令行参数
func parseFlags() bool {
	flag.Parse()

	if *help {
		showHelp()
		return true
	}
	if *version {
		showVersion()
		return true
	}
	return false
}

// showHelp 显示帮助信息
func showHelp() {
	fmt.Println("交易所数据标准化服务")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  exchange-normalizer [选项]")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  -config string")
	fmt.Println("        配置文件路径 (默认 \"./config/config.yaml\")")
	fmt.Println("  -env string")
	fmt.Println("        环境变量文件，逗号分隔 (默认 \".env\")")
	fmt.Println("  -version")
	fmt.Println("        显示版本信息")
	fmt.Println("  -help")
	fmt.Println("        显示此帮助信息")
	fmt.Println()
	fmt.Println("支持的交易所:", strings.Join(app.Supported(), ", "))
}

// showVersion 显示版本信息
func showVersion() {
	fmt.Printf("exchange-normalizer v%s\n", Version)
}
