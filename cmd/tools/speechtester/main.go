package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/z-meeting/internal/config"
	"github.com/zhouzirui/z-meeting/internal/logging"
	"github.com/zhouzirui/z-meeting/internal/speech"
)

func main() {
	logger := logging.New(logging.Config{Level: "debug", Service: "speechtester"})

	if err := godotenv.Load(); err != nil {
		logger.Warn().Err(err).Msg("无法加载 .env，改用系统环境变量")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("配置加载失败")
	}

	mode := flag.String("mode", cfg.Client.SpeechMode, "语音后端: auto, say, espeak, log, off")
	text := flag.String("text", "The meeting assistant is ready.", "要朗读的文本")
	rate := flag.Float64("rate", speech.DefaultRate, "语速倍率")
	pitch := flag.Float64("pitch", speech.DefaultPitch, "音高倍率")
	timeout := flag.Duration("timeout", 30*time.Second, "朗读超时时间")

	flag.Parse()

	if strings.TrimSpace(*text) == "" {
		flag.Usage()
		os.Exit(2)
	}

	synth, err := speech.New(*mode, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("mode", *mode).Msg("创建语音后端失败")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	u := speech.Utterance{Text: *text, Rate: *rate, Pitch: *pitch}
	start := time.Now()
	if err := synth.Speak(ctx, u); err != nil {
		logger.Fatal().Err(err).Msg("朗读失败")
	}

	engine := *mode
	if cs, ok := synth.(*speech.CommandSynthesizer); ok {
		engine = cs.Engine()
	}
	fmt.Printf("spoke %d chars via %s at %d wpm in %s\n", len(u.Text), engine, u.WordsPerMinute(), time.Since(start).Round(time.Millisecond))
}
