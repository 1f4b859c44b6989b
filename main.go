package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"unsafe"

	"quizdesk/admin"
	"quizdesk/config"
	"quizdesk/quiz"
	"quizdesk/store"
	"quizdesk/webapp"
)

var (
	activeRawState *syscall.Termios
	activeRawFD    int
	activeSession  *quiz.Session
	sessionMu      sync.Mutex
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"

	checkMark = "✅"
	crossMark = "❌"
)

func main() {
	log.SetFlags(0)
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	ctx := context.Background()
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()
	if err := st.Initialize(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize database: %v\n", err)
		os.Exit(1)
	}

	svc := admin.NewService(st)
	engine := quiz.NewEngine(st)
	gate := admin.NewGate(cfg.AdminPassphrase)

	if cfg.AddCategory != "" || cfg.ImportFile != "" {
		if err := runAdmin(ctx, cfg, svc, gate, bufio.NewScanner(os.Stdin)); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	if cfg.Mode == "web" {
		if !gate.Enabled() {
			log.Printf("quizdesk: QUIZ_ADMIN_PASSPHRASE is empty, admin API disabled")
		}
		server := webapp.NewServer(engine, svc, gate)
		if err := webapp.Run(cfg.Addr, server, cfg.CORSOrigins); err != nil {
			fmt.Fprintf(os.Stderr, "web server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	runCLI(ctx, engine, svc)
}

// runAdmin runs the terminal admin commands once the passphrase read from
// reader passes the gate.
func runAdmin(ctx context.Context, cfg *config.Config, svc *admin.Service, gate admin.Gate, reader *bufio.Scanner) error {
	if !gate.Enabled() {
		return admin.ErrAdminDisabled
	}
	fmt.Print("Admin password: ")
	var candidate string
	if reader.Scan() {
		candidate = strings.TrimSpace(reader.Text())
	}
	fmt.Println()
	if err := gate.Check(candidate); err != nil {
		return err
	}

	if cfg.AddCategory != "" {
		ok, err := svc.AddCategory(ctx, cfg.AddCategory)
		if err != nil {
			return err
		}
		if ok {
			fmt.Printf("Category '%s' added successfully!\n", cfg.AddCategory)
		} else {
			fmt.Printf("Category '%s' already exists.\n", cfg.AddCategory)
		}
	}
	if cfg.ImportFile != "" {
		n, err := svc.Import(ctx, cfg.ImportFile, cfg.Category)
		if err != nil {
			return fmt.Errorf("import %s: %w", cfg.ImportFile, err)
		}
		fmt.Printf("Imported %d questions from %s.\n", n, cfg.ImportFile)
	}
	return nil
}

func runCLI(ctx context.Context, engine *quiz.Engine, svc *admin.Service) {
	setupSignalHandling()
	reader := bufio.NewScanner(os.Stdin)

	fmt.Println(colorize("Quiz Desk", colorBold+colorCyan))
	fmt.Println("-------------------------------")

	var session quiz.Session
	for {
		cats, err := svc.Categories(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to list categories: %v\n", err)
			os.Exit(1)
		}
		if len(cats) == 0 {
			fmt.Println("No categories yet. Add one with -add-category or -import.")
			return
		}
		category, ok := promptCategory(reader, cats)
		if !ok {
			return
		}
		session, err = engine.Start(ctx, category)
		if errors.Is(err, quiz.ErrNoQuestions) {
			fmt.Println(colorize(fmt.Sprintf("No questions available for %s.", category), colorYellow))
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start quiz: %v\n", err)
			os.Exit(1)
		}
		break
	}
	setActive(session)

	for {
		q, ok := session.Current()
		if !ok {
			break
		}
		answered, total := session.Progress()
		selected, inputOK := promptSelection(reader, q, session.Position()+1, answered, total)
		if !inputOK {
			fmt.Println("\nInput ended unexpectedly. Exiting quiz.")
			return
		}

		next, out, err := session.Submit(selected)
		switch {
		case errors.Is(err, quiz.ErrSelectionRequired):
			pause(reader, colorize("Please select at least one answer.", colorRed))
			continue
		case errors.Is(err, quiz.ErrSingleSelection):
			pause(reader, colorize("Please select only one answer.", colorRed))
			continue
		case err != nil:
			fmt.Fprintf(os.Stderr, "submit: %v\n", err)
			return
		}
		session = next
		setActive(session)

		showFeedback(q, selected, out)
		pause(reader, "Press Enter to continue...")
		fmt.Println()
	}

	fmt.Println(colorize("Quiz completed!", colorBold+colorGreen))
	printSummary(session.Answers(), session.Result())
}

func promptCategory(reader *bufio.Scanner, cats []string) (string, bool) {
	for {
		fmt.Println("\nChoose a category:")
		for i, c := range cats {
			fmt.Printf("  %d) %s\n", i+1, c)
		}
		fmt.Print("Category (number or name, q to quit): ")
		if !reader.Scan() {
			return "", false
		}
		input := strings.TrimSpace(reader.Text())
		if strings.EqualFold(input, "q") {
			return "", false
		}
		if name, ok := matchCategory(input, cats); ok {
			return name, true
		}
		fmt.Println(colorize("Unknown category.", colorRed))
	}
}

func matchCategory(input string, cats []string) (string, bool) {
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(cats) {
			return cats[n-1], true
		}
		return "", false
	}
	for _, c := range cats {
		if strings.EqualFold(c, input) {
			return c, true
		}
	}
	return "", false
}

// promptSelection renders the options with a cursor. Single choice questions
// confirm the option under the cursor; multiple choice questions toggle with
// space and confirm the checked set with Enter.
func promptSelection(reader *bufio.Scanner, q quiz.Question, number, answered, total int) ([]string, bool) {
	choiceIdx := 0
	checked := make([]bool, quiz.OptionCount)

	render := func() {
		width, rows := termSize()
		clearScreen()
		header := colorize(fmt.Sprintf("Q%d: %s", number, q.Text), colorBold+colorCyan)
		lines := []string{formatProgress(answered, total), header, ""}
		for i, opt := range q.Options {
			prefix := "  "
			if i == choiceIdx {
				prefix = colorize("> ", colorYellow)
			}
			box := ""
			if q.MultipleChoice {
				box = "[ ] "
				if checked[i] {
					box = colorize("[x] ", colorGreen)
				}
			}
			lines = append(lines, fmt.Sprintf("%s%s%s) %s", prefix, box, quiz.OptionLetter(i), opt))
		}
		hint := "Use ↑/↓ to select, Enter to confirm (A–D also works)."
		if q.MultipleChoice {
			hint = "Select all that apply: ↑/↓ to move, Space or A–D to toggle, Enter to submit."
		}
		lines = append(lines, "", colorize(hint, colorYellow))
		renderBlockWithVerticalCenter(lines, width, rows)
	}

	render()

	if _, err := enableRaw(int(os.Stdin.Fd())); err != nil {
		return fallbackPrompt(reader, q)
	}
	defer func() {
		if activeRawState != nil {
			disableRaw(activeRawFD, activeRawState)
		}
	}()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			return nil, false
		}
		switch {
		case buf[0] == '\n' || buf[0] == '\r':
			if !q.MultipleChoice {
				return []string{q.Options[choiceIdx]}, true
			}
			return checkedOptions(q, checked), true
		case buf[0] == 27 && n >= 3 && buf[1] == '[':
			switch buf[2] {
			case 'A':
				if choiceIdx > 0 {
					choiceIdx--
					render()
				}
			case 'B':
				if choiceIdx < quiz.OptionCount-1 {
					choiceIdx++
					render()
				}
			}
		case buf[0] == ' ' && q.MultipleChoice:
			checked[choiceIdx] = !checked[choiceIdx]
			render()
		default:
			i := quiz.OptionIndex(string(unicodeToLetter(rune(buf[0]))))
			if i < 0 {
				continue
			}
			choiceIdx = i
			if !q.MultipleChoice {
				render()
				return []string{q.Options[i]}, true
			}
			checked[i] = !checked[i]
			render()
		}
	}
}

func fallbackPrompt(reader *bufio.Scanner, q quiz.Question) ([]string, bool) {
	label := "Your answer (A-D): "
	if q.MultipleChoice {
		label = "Your answers (e.g. A,C): "
	}
	for {
		fmt.Print(label)
		if !reader.Scan() {
			return nil, false
		}
		selected, err := parseSelection(reader.Text(), q)
		if err != nil {
			fmt.Println(colorize(err.Error(), colorRed))
			continue
		}
		return selected, true
	}
}

// parseSelection turns typed letters such as "a, c" into option texts.
func parseSelection(input string, q quiz.Question) ([]string, error) {
	fields := strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' })
	selected := make([]string, 0, len(fields))
	for _, f := range fields {
		i := quiz.OptionIndex(f)
		if i < 0 {
			return nil, fmt.Errorf("%q is not one of A-D", f)
		}
		selected = append(selected, q.Options[i])
	}
	return selected, nil
}

func checkedOptions(q quiz.Question, checked []bool) []string {
	var out []string
	for i, on := range checked {
		if on {
			out = append(out, q.Options[i])
		}
	}
	return out
}

// optionLetters renders answer texts as letters, falling back to the text
// for answers that are not among the options.
func optionLetters(q quiz.Question, values []string) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		label := v
		for i, opt := range q.Options {
			if opt == v {
				label = quiz.OptionLetter(i)
				break
			}
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, ",")
}

func formatProgress(completed, total int) string {
	if total <= 0 {
		return ""
	}
	if completed < 0 {
		completed = 0
	}
	if completed > total {
		completed = total
	}
	barWidth := 20
	filled := completed * barWidth / total
	filledPart := colorize(strings.Repeat("#", filled), colorGreen+colorBold)
	emptyPart := strings.Repeat("-", barWidth-filled)
	bar := "[" + filledPart + emptyPart + "]"
	return fmt.Sprintf("%s %s%d/%d answered%s, %d left", bar, colorGreen, completed, total, colorReset, total-completed)
}

// makeRaw sets the terminal into raw mode; returns previous state.
func makeRaw(fd int) (*syscall.Termios, error) {
	var oldState syscall.Termios
	if _, _, err := syscall.Syscall6(syscall.SYS_IOCTL, uintptr(fd), uintptr(syscall.TCGETS), uintptr(unsafe.Pointer(&oldState)), 0, 0, 0); err != 0 {
		return nil, err
	}
	newState := oldState
	newState.Lflag &^= syscall.ICANON | syscall.ECHO
	newState.Iflag &^= syscall.ICRNL
	if _, _, err := syscall.Syscall6(syscall.SYS_IOCTL, uintptr(fd), uintptr(syscall.TCSETS), uintptr(unsafe.Pointer(&newState)), 0, 0, 0); err != 0 {
		return nil, err
	}
	return &oldState, nil
}

func restore(fd int, state *syscall.Termios) {
	syscall.Syscall6(syscall.SYS_IOCTL, uintptr(fd), uintptr(syscall.TCSETS), uintptr(unsafe.Pointer(state)), 0, 0, 0)
}

func unicodeToLetter(ch rune) rune {
	return []rune(strings.ToUpper(string(ch)))[0]
}

func colorize(s, color string) string {
	if color == "" {
		return s
	}
	return color + s + colorReset
}

func pause(reader *bufio.Scanner, msg string) {
	fmt.Println(msg)
	reader.Scan()
}

func showFeedback(q quiz.Question, selected []string, out quiz.Outcome) {
	clearScreen()
	width, rows := termSize()
	lines := []string{"", ""}
	if out.Correct {
		lines = append(lines, colorize(checkMark+" Correct!", colorGreen+colorBold))
	} else {
		lines = append(lines, colorize(crossMark+" Incorrect.", colorRed+colorBold))
	}
	lines = append(lines,
		colorize("Your answer: "+optionLetters(q, selected), colorYellow),
		colorize("Correct answer: "+optionLetters(q, out.CorrectAnswers), colorGreen),
	)
	if out.Feedback != "" {
		lines = append(lines, "", out.Feedback)
	}
	lines = append(lines, "", colorize("Q: "+q.Text, colorCyan+colorBold))
	for i, opt := range q.Options {
		line := fmt.Sprintf("  %s) %s", quiz.OptionLetter(i), opt)
		for _, s := range selected {
			if s == opt {
				line = colorize(line, colorYellow)
				break
			}
		}
		lines = append(lines, line)
	}
	renderBlockWithVerticalCenter(lines, width, rows)
}

func printSummary(answers []quiz.Answer, res quiz.Result) {
	fmt.Println("\nReview:")

	rows := make([]string, len(answers))
	maxLen := 0
	for i, a := range answers {
		status := colorize(crossMark+" incorrect", colorRed+colorBold)
		if a.Correct {
			status = colorize(checkMark+" correct", colorGreen+colorBold)
		}
		line := fmt.Sprintf("Q%-3d %-9s Your:%s Correct:%s", i+1, status,
			optionLetters(a.Question, a.Selected), optionLetters(a.Question, a.Question.CorrectAnswers))
		rows[i] = line
		if l := len([]rune(line)); l > maxLen {
			maxLen = l
		}
	}

	width, _ := termSize()
	colWidth := maxLen + 2
	cols := 1
	if width > 0 && colWidth > 0 {
		if c := width / colWidth; c > 0 {
			cols = c
		}
	}
	rowsPerCol := (len(answers) + cols - 1) / cols

	for r := 0; r < rowsPerCol; r++ {
		var parts []string
		for c := 0; c < cols; c++ {
			idx := c*rowsPerCol + r
			if idx >= len(answers) {
				continue
			}
			parts = append(parts, padRight(rows[idx], colWidth))
		}
		fmt.Println(strings.TrimRight(strings.Join(parts, ""), " "))
	}
	fmt.Printf("You answered %d of %d correctly (%.1f%%).\n", res.Score, res.Total, res.Percentage)
}

func padRight(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(runes))
}

func setActive(s quiz.Session) {
	sessionMu.Lock()
	activeSession = &s
	sessionMu.Unlock()
}

func setupSignalHandling() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		<-ch
		if activeRawState != nil {
			restore(activeRawFD, activeRawState)
		}
		sessionMu.Lock()
		session := activeSession
		sessionMu.Unlock()

		if session == nil || len(session.Answers()) == 0 {
			fmt.Println("\nNo answers recorded. Exiting.")
			os.Exit(1)
		}

		// interrupted: score what was answered so far
		answers := session.Answers()
		fmt.Println()
		printSummary(answers, quiz.NewResult(session.Score(), len(answers)))
		os.Exit(0)
	}()
}

func enableRaw(fd int) (*syscall.Termios, error) {
	state, err := makeRaw(fd)
	if err == nil {
		activeRawState = state
		activeRawFD = fd
	}
	return state, err
}

func disableRaw(fd int, state *syscall.Termios) {
	restore(fd, state)
	if activeRawState == state {
		activeRawState = nil
	}
}

func termSize() (int, int) {
	type winsize struct {
		Row    uint16
		Col    uint16
		Xpixel uint16
		Ypixel uint16
	}
	ws := &winsize{}
	_, _, err := syscall.Syscall6(syscall.SYS_IOCTL, uintptr(os.Stdout.Fd()), uintptr(syscall.TIOCGWINSZ), uintptr(unsafe.Pointer(ws)), 0, 0, 0)
	if err != 0 {
		return 0, 0
	}
	return int(ws.Col), int(ws.Row)
}

func clearScreen() {
	fmt.Print("\033[2J\033[H")
}

// renderBlock prints lines left-aligned within a centered block.
func renderBlock(lines []string, width int) {
	maxLen := 0
	for _, l := range lines {
		if len([]rune(l)) > maxLen {
			maxLen = len([]rune(l))
		}
	}
	margin := 0
	if width > 0 && maxLen < width {
		margin = (width - maxLen) / 2
	}
	space := strings.Repeat(" ", margin)
	for _, l := range lines {
		fmt.Println(space + l)
	}
}

func renderBlockWithVerticalCenter(lines []string, width, rows int) {
	if rows <= 0 {
		renderBlock(lines, width)
		return
	}
	topPad := (rows - len(lines)) / 2
	if topPad < 0 {
		topPad = 0
	}
	for i := 0; i < topPad; i++ {
		fmt.Println()
	}
	renderBlock(lines, width)
}
