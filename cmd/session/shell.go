package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/hitzhangjie/gotrace/pkg/supervisor"
)

const (
	cmdGroupAnnotation = "cmd_group_annotation"

	cmdGroupSupervise = "1-supervise"
	cmdGroupInfo      = "2-info"
	cmdGroupOthers    = "3-other"
	cmdGroupCobra     = "other"

	cmdGroupDelimiter = "-"

	prefix    = "gotrace> "
	descShort = "gotrace interactive commands"
)

var shellRootCmd = &cobra.Command{
	Use:   "help [command]",
	Short: descShort,
}

var (
	CurrentSession *Session

	// Supervisor runs the supervisions started from the shell
	Supervisor *supervisor.Supervisor
)

// Session 交互式跟踪会话
type Session struct {
	done   chan bool
	once   sync.Once
	prefix string
	root   *cobra.Command
	liner  *liner.State
	last   string

	mu      sync.Mutex
	history []supervisor.Outcome

	defers []func()
}

// NewSession 创建一个交互管理器
func NewSession() *Session {

	fn := func(cmd *cobra.Command, args []string) {
		// 描述信息
		fmt.Println(cmd.Short)
		fmt.Println()

		// 使用信息
		fmt.Println(cmd.Use)
		fmt.Println(cmd.Flags().FlagUsages())

		// 命令分组
		usage := helpMessageByGroups(cmd)
		fmt.Println(usage)
	}
	shellRootCmd.SetHelpFunc(fn)

	return &Session{
		done:   make(chan bool),
		prefix: prefix,
		root:   shellRootCmd,
		last:   "",
	}
}

func (s *Session) Start() {
	s.liner = liner.NewLiner()
	s.liner.SetCompleter(completer)
	s.liner.SetTabCompletionStyle(liner.TabPrints)

	defer func() {
		for idx := len(s.defers) - 1; idx >= 0; idx-- {
			s.defers[idx]()
		}
	}()

	for {
		select {
		case <-s.done:
			s.liner.Close()
			return
		default:
		}

		txt, err := s.liner.Prompt(s.prefix)
		if err != nil {
			// ctrl-d or ctrl-c ends the session like exit
			if err == io.EOF || errors.Is(err, liner.ErrPromptAborted) {
				s.Stop()
				continue
			}
			fmt.Println(err)
			s.Stop()
			continue
		}

		txt = strings.TrimSpace(txt)
		if len(txt) != 0 {
			s.last = txt
			s.liner.AppendHistory(txt)
		} else {
			txt = s.last
		}
		if len(txt) == 0 {
			continue
		}

		s.root.SetArgs(strings.Fields(txt))
		s.root.Execute()
	}
}

func (s *Session) AtExit(fn func()) *Session {
	s.defers = append(s.defers, fn)
	return s
}

func (s *Session) Stop() {
	s.once.Do(func() {
		close(s.done)
	})
}

// record remembers an outcome for the history command.
func (s *Session) record(o supervisor.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, o)
}

// History returns the outcomes of this session, oldest first.
func (s *Session) History() []supervisor.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]supervisor.Outcome(nil), s.history...)
}

func completer(line string) []string {
	cmds := []string{}
	for _, c := range shellRootCmd.Commands() {
		// complete cmd
		if strings.HasPrefix(c.Use, line) {
			cmds = append(cmds, strings.Split(c.Use, " ")[0])
		}
		// complete cmd's aliases
		for _, alias := range c.Aliases {
			if strings.HasPrefix(alias, line) {
				cmds = append(cmds, alias)
			}
		}
	}
	return cmds
}

// helpMessageByGroups 将各个命令按照分组归类，再展示帮助信息
func helpMessageByGroups(cmd *cobra.Command) string {

	// key:group, val:sorted commands in same group
	groups := map[string][]string{}
	for _, c := range cmd.Commands() {
		// 如果没有指定命令分组，放入other组
		groupName, ok := c.Annotations[cmdGroupAnnotation]
		if !ok {
			groupName = cmdGroupCobra
		}

		groupCmds := append(groups[groupName], fmt.Sprintf("  %-16s:%s", c.Name(), c.Short))
		sort.Strings(groupCmds)

		groups[groupName] = groupCmds
	}

	if len(groups[cmdGroupCobra]) != 0 {
		groups[cmdGroupOthers] = append(groups[cmdGroupOthers], groups[cmdGroupCobra]...)
	}
	delete(groups, cmdGroupCobra)

	// 按照分组名进行排序
	groupNames := []string{}
	for k := range groups {
		groupNames = append(groupNames, k)
	}
	sort.Strings(groupNames)

	// 按照group分组，并对组内命令进行排序
	buf := bytes.Buffer{}
	for _, groupName := range groupNames {
		commands := groups[groupName]

		group := strings.Split(groupName, cmdGroupDelimiter)[1]
		buf.WriteString(fmt.Sprintf("- [%s]\n", group))

		for _, cmd := range commands {
			buf.WriteString(fmt.Sprintf("%s\n", cmd))
		}
		buf.WriteString("\n")
	}
	return buf.String()
}
