// cmd/demo/main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Corphon/SeriesMoodRecap/internal/app"
	"github.com/Corphon/SeriesMoodRecap/internal/config"
	"github.com/Corphon/SeriesMoodRecap/internal/di"
	"github.com/Corphon/SeriesMoodRecap/internal/models"
	"github.com/Corphon/SeriesMoodRecap/internal/session"
	"github.com/Corphon/SeriesMoodRecap/internal/utils"
)

const cliBoxMaxWidth = 90

var stdin = bufio.NewScanner(os.Stdin)

func main() {
	fmt.Println("📺 TV Series Mood Recap Console")
	fmt.Println("===============================")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ 加载配置失败: %v", err)
	}
	for _, warning := range cfg.Warnings() {
		fmt.Println("⚠️ " + warning)
	}

	// Console output is for the user; logs go to the rotated file only.
	if err := utils.InitLogger(cfg.LogDir, cfg.LogLevel); err != nil {
		log.Printf("⚠️ 无法初始化结构化日志: %v", err)
	}
	utils.GetLogger().SetConsole(io.Discard)
	defer utils.GetLogger().Close()

	container := di.NewContainer()
	if err := app.InitServices(cfg, container); err != nil {
		log.Fatalf("❌ 初始化服务失败: %v", err)
	}
	sessions, err := di.Resolve[*session.Manager](container, "sessions")
	if err != nil {
		log.Fatalf("❌ 会话管理器未初始化: %v", err)
	}

	ctrl := sessions.Create()
	defer sessions.Delete(ctrl.ID())

	wasLoading := false
	ctrl.Subscribe(func(st session.State) {
		if st.Loading && !wasLoading {
			fmt.Println("⏳ Loading...")
		}
		wasLoading = st.Loading
	})

	ctx := context.Background()
	for {
		query, ok := getUserInput("\n🔎 Series name (q to quit): ")
		if !ok || query == "q" || query == "quit" {
			fmt.Println("👋 Bye")
			return
		}

		st, err := ctrl.Search(ctx, query)
		if err != nil {
			fmt.Println("❌ " + st.Error)
			continue
		}
		printCandidates(st.Candidates)

		choice, ok := getUserInput("Pick a number (Enter to search again): ")
		if !ok {
			return
		}
		n, err := strconv.Atoi(choice)
		if err != nil || n < 1 || n > len(st.Candidates) {
			continue
		}

		st, err = ctrl.Select(ctx, st.Candidates[n-1].ID)
		if st.Selected != nil {
			printDetail(st.Selected, st.Recap)
		}
		if err != nil {
			fmt.Println("❌ " + st.Error)
		}
	}
}

// 获取用户输入
func getUserInput(prompt string) (string, bool) {
	fmt.Print(prompt)
	if !stdin.Scan() {
		return "", false
	}
	return strings.TrimSpace(stdin.Text()), true
}

func printCandidates(list models.CandidateList) {
	for i, c := range list {
		fmt.Printf("  %d) %s (%s)\n", i+1, c.Title, c.YearOrPlaceholder())
	}
}

func printDetail(detail *models.SeriesDetail, recap string) {
	d := detail.Display()
	var b strings.Builder
	fmt.Fprintf(&b, "Year: %s\nGenre: %s\nPoster: %s\n\n%s", d.Year, d.Genre, d.Poster, d.Plot)
	if recap != "" {
		fmt.Fprintf(&b, "\n\nRecap:\n%s", recap)
	}
	printBox(d.Title, b.String())
}

func printBox(title, content string) {
	wrappedLines := wrapContentForBox(content, cliBoxMaxWidth)
	maxWidth := utf8.RuneCountInString(title)
	for _, line := range wrappedLines {
		if w := utf8.RuneCountInString(line); w > maxWidth {
			maxWidth = w
		}
	}
	border := strings.Repeat("─", maxWidth+2)
	fmt.Println("┌" + border + "┐")
	if title != "" {
		fmt.Printf("│ %s │\n", padRight(title, maxWidth))
		fmt.Println("├" + border + "┤")
	}
	for _, line := range wrappedLines {
		fmt.Printf("│ %s │\n", padRight(line, maxWidth))
	}
	fmt.Println("└" + border + "┘")
}

func wrapContentForBox(content string, maxWidth int) []string {
	var result []string
	for _, rawLine := range strings.Split(content, "\n") {
		runes := []rune(strings.TrimRight(rawLine, " "))
		for len(runes) > maxWidth {
			result = append(result, string(runes[:maxWidth]))
			runes = runes[maxWidth:]
		}
		result = append(result, string(runes))
	}
	return result
}

func padRight(text string, width int) string {
	current := utf8.RuneCountInString(text)
	if current >= width {
		return text
	}
	return text + strings.Repeat(" ", width-current)
}
