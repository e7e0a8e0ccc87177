package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/towergo/client/internal/config"
	"github.com/towergo/client/internal/data"
	"github.com/towergo/client/internal/match"
	gamenet "github.com/towergo/client/internal/net"
	"github.com/towergo/client/internal/replication"
	"github.com/towergo/client/internal/scripting"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

const tickInterval = 16 * time.Millisecond // ~60 Hz

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            TowerGo Client  v0.1.0         \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       高塔 · Go 複製層測試客戶端          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	// Use rune count for CJK width calculation (each CJK char = 2 columns)
	displayWidth := 0
	for _, r := range title {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	lineLen := 46 - displayWidth - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	displayWidth := 0
	for _, r := range label {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	dotsLen := 42 - displayWidth - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main client logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/client.toml"
	if p := os.Getenv("TOWERCLI_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	// 3. Load display tables
	printSection("資料載入")

	tiles, err := data.LoadTileTable(cfg.Data.TileTable)
	if err != nil {
		return fmt.Errorf("load tile table: %w", err)
	}
	printStat("地板樣板", tiles.Count())

	monsters, err := data.LoadMonsterCatalog(cfg.Data.MonsterTable)
	if err != nil {
		return fmt.Errorf("load monster catalog: %w", err)
	}
	printStat("怪物樣板", monsters.Count())
	fmt.Println()

	// 4. Build the replication stack
	sink := newConsoleSink(tiles, monsters, log)
	transport := gamenet.NewTransport(gamenet.Options{
		KeepaliveInterval: cfg.Network.KeepaliveInterval,
		Timeout:           cfg.Network.Timeout,
		QueueSize:         cfg.Network.InQueueSize,
		MaxPacketsPerTick: cfg.Network.MaxPacketsPerTick,
	}, log)
	cache := replication.NewCache(sink, float32(cfg.Replication.TileSize), log)
	manager := replication.NewManager(transport, cache, cfg.Replication.StatsInterval, log)

	// 5. Connect
	printSection("連線")

	if err := transport.Connect(cfg.Network.ServerAddress, cfg.Network.ServerPort); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer transport.Disconnect()
	printOK(fmt.Sprintf("UDP 複製通道 %s:%d", cfg.Network.ServerAddress, cfg.Network.ServerPort))

	var channel *match.Channel
	if cfg.Match.Enabled {
		channel = match.NewChannel(match.Options{
			Host:             cfg.Match.Host,
			Port:             cfg.Match.Port,
			ReconnectInitial: cfg.Match.ReconnectInitial,
			ReconnectMax:     cfg.Match.ReconnectMax,
			MaxRetries:       cfg.Match.MaxRetries,
		}, log)
		channel.Subscribe(match.OpChatMessage, func(op match.OpCode, dataJSON string) {
			log.Info("聊天訊息", zap.String("data", dataJSON))
		})
		if err := channel.Connect(cfg.Match.MatchID, cfg.Match.AuthToken); err != nil {
			// The replication channel works without the match channel.
			log.Warn("對戰頻道連線失敗", zap.Error(err))
			channel = nil
		} else {
			printOK(fmt.Sprintf("WebSocket 對戰頻道 %s:%d", cfg.Match.Host, cfg.Match.Port))
		}
	}

	// 6. Optional Lua scenario
	var engine *scripting.Engine
	if cfg.Scenario.Enabled {
		engine, err = scripting.NewEngine(cfg.Scenario.ScriptsDir, log)
		if err != nil {
			return fmt.Errorf("scenario: %w", err)
		}
		defer engine.Close()
		bindScenario(engine, manager, channel, log)
		if err := engine.OnConnect(); err != nil {
			log.Warn("腳本 on_connect 失敗", zap.Error(err))
		}
		printOK("情境腳本載入完成")
	}

	fmt.Println()
	printReady(fmt.Sprintf("客戶端啟動完成 (client_id=%d)", transport.ClientID()))
	fmt.Println()

	// 7. Tick loop
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	start := time.Now()
	last := start

loop:
	for {
		select {
		case <-sigCh:
			log.Info("收到中斷訊號，關閉中")
			break loop

		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now

			manager.Tick(dt)
			if channel != nil {
				channel.Tick()
			}
			if engine != nil {
				if err := engine.OnTick(now.Sub(start).Seconds()); err != nil {
					log.Warn("腳本 on_tick 失敗", zap.Error(err))
				}
			}

			if cfg.Network.DisconnectOnTimeout && transport.TimedOut() {
				log.Warn("連線逾時，中斷連線",
					zap.Duration("since_last_packet", transport.SinceLastPacket()),
				)
				break loop
			}
		}
	}

	// 8. Shutdown: destroy every presentation handle, then close sockets.
	manager.Disconnect()
	if channel != nil {
		channel.Disconnect()
	}
	transport.Disconnect()

	stats := manager.Stats()
	log.Info("客戶端結束",
		zap.Uint64("packets", stats.PacketsReceived),
		zap.Uint64("bytes", stats.BytesReceived),
		zap.Uint64("dropped", transport.Dropped()),
	)
	return nil
}

// bindScenario registers the Go functions scenario scripts may call.
func bindScenario(engine *scripting.Engine, manager *replication.Manager, channel *match.Channel, log *zap.Logger) {
	engine.Bind("log", func(L *lua.LState) int {
		log.Info("腳本", zap.String("message", L.CheckString(1)))
		return 0
	})

	engine.Bind("send_chat", func(L *lua.LState) int {
		msg := L.CheckString(1)
		if channel == nil {
			L.Push(lua.LFalse)
			return 1
		}
		if err := channel.SendChat(msg); err != nil {
			log.Warn("腳本聊天發送失敗", zap.Error(err))
			L.Push(lua.LFalse)
			return 1
		}
		L.Push(lua.LTrue)
		return 1
	})

	engine.Bind("client_stats", func(L *lua.LState) int {
		stats := manager.Stats()
		tbl := L.NewTable()
		tbl.RawSetString("packets", lua.LNumber(stats.PacketsReceived))
		tbl.RawSetString("bytes", lua.LNumber(stats.BytesReceived))
		tbl.RawSetString("players", lua.LNumber(stats.Players))
		tbl.RawSetString("monsters", lua.LNumber(stats.Monsters))
		tbl.RawSetString("tiles", lua.LNumber(stats.Tiles))
		L.Push(tbl)
		return 1
	})
}
