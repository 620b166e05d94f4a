package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/DH0263/dittonweb-sub000/config"
	"github.com/DH0263/dittonweb-sub000/internal/console"
	"github.com/DH0263/dittonweb-sub000/internal/console/apiclient"
	"github.com/DH0263/dittonweb-sub000/internal/period"
	"github.com/DH0263/dittonweb-sub000/internal/tui"
	applogger "github.com/DH0263/dittonweb-sub000/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认 ./config/config.yaml）")
	loginID := flag.String("login", "", "登录账号（覆盖 console.login_id）")
	password := flag.String("password", "", "登录密码（覆盖 console.password）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateConsole(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if *loginID != "" {
		cfg.Console.LoginID = *loginID
	}
	if *password != "" {
		cfg.Console.Password = *password
	}

	// 2. 日志写文件，终端留给界面
	cfg.Log.OutputPaths = []string{cfg.Console.LogFile}
	logger, err := applogger.NewLogger(&cfg.Log, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// 3. 登录
	client := apiclient.NewClient(cfg.Console.APIBaseURL, cfg.Console.RequestTimeout, logger)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Console.RequestTimeout)
	staff, err := client.Login(ctx, cfg.Console.LoginID, cfg.Console.Password)
	cancel()
	if err != nil {
		logger.Error("登录失败", zap.Error(err))
		fmt.Fprintf(os.Stderr, "登录失败: %v\n", err)
		os.Exit(1)
	}

	// 4. 组装监督引擎
	sched := period.FromConfig(&cfg.Supervision)
	markers := console.NewFileMarkerStore(cfg.Console.MarkerPath)
	sender := apiclient.NewBeaconSender(client, cfg.Console.RequestTimeout, logger)
	ctrl := console.NewController(client, sender, markers, sched, console.SystemClock{}, console.Options{
		Roster: console.RosterOptions{
			HighSchoolTypes:  cfg.Supervision.HighSchoolTypes,
			SchoolCutoffHour: cfg.Supervision.SchoolCutoffHour,
			Location:         sched.Location(),
		},
		DefaultChecker: cfg.Console.DefaultChecker,
	}, logger)
	ctrl.SetCheckerName(staff.Name)

	// 5. 运行界面；SIGTERM / SIGHUP 视同页面关闭
	model := tui.New(ctrl, cfg.Console.RefreshInterval, cfg.Console.RequestTimeout, logger)
	p := tea.NewProgram(model, tea.WithAltScreen())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		s := <-sig
		logger.Warn("收到终止信号", zap.String("signal", s.String()))
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		logger.Error("界面异常退出", zap.Error(err))
	}

	// 6. 离开：巡查仍在进行则强制结束，并给在途信标短暂宽限
	if ctrl.PageGone() {
		if !sender.Wait(cfg.Console.BeaconGrace) {
			logger.Warn("强制结束信标未在宽限期内完成", zap.Duration("grace", cfg.Console.BeaconGrace))
		}
	}

	ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
	client.Logout(ctx)
	cancel()
	logger.Info("控制台已退出", zap.String("staff", staff.LoginID))
}
