package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/zintix-labs/randlab"
	"github.com/zintix-labs/randlab/demo/demo_configs"
	"github.com/zintix-labs/randlab/recorder"
	"github.com/zintix-labs/randlab/scenario"
	"github.com/zintix-labs/randlab/sdk/core"
	"github.com/zintix-labs/randlab/stats"
)

var cfg *config = new(config)

type config struct {
	name      string
	id        scenario.SID
	worker    int
	rounds    int
	seed      int64
	out       string // 報表輸出檔（.json / .yaml），空字串只印表格
	trace     string // 抽樣軌跡輸出檔（zstd 壓縮，只支援單線模式）
	pprofmode string
}

type sidFlag struct{ p *scenario.SID }

func (f sidFlag) String() string { return fmt.Sprint(int(*f.p)) }
func (f sidFlag) Set(s string) error {
	u, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f.p = scenario.SID(u)
	return nil
}

func bindVar() {
	// 綁定 Flag 到本地變數的指標 (&)
	flag.Var(sidFlag{&cfg.id}, "scenario", "target scenario id")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.rounds, "rounds", 10000000, "rounds to sample")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator")
	flag.StringVar(&cfg.out, "o", "", "write report to file (.json or .yaml)")
	flag.StringVar(&cfg.trace, "trace", "", "write per-draw trace to file (single worker only)")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()

	// given seed illegal -> default seed
	if cfg.seed < 1 {
		seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			log.Fatal(err)
		}
		cfg.seed = seed.Int64()
	}
}

// 這裡解析並分支要執行的模擬器
func executeSimulator() {
	cfg.valid() // 基本檢查

	lab, err := randlab.NewAuto(
		core.Default(),
		randlab.Configs(demo_configs.FS),
	)
	if err != nil {
		log.Fatal(err)
	}
	s, err := lab.NewSimulatorWithSeed(cfg.id, cfg.seed)
	if err != nil {
		log.Fatal(err)
	}
	ent, _ := lab.EntryById(cfg.id)
	cfg.name = ent.Name

	// 抽樣軌跡：只掛在單線路徑（MP 路徑各 worker 交錯，trace 無意義）
	var tr *recorder.Trace
	if cfg.trace != "" {
		tr, err = recorder.CreateTrace(cfg.trace)
		if err != nil {
			log.Fatal(err)
		}
		defer tr.Close()
		s.AttachTrace(tr)
	}

	// 至此確保可執行
	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)

	switch s.Kind() {
	case scenario.KindDiscrete:
		if cfg.worker == 1 { // 單線程
			p.Printf("%s[SCENARIO:%s] [ROUNDS:%d]%s\n", green, cfg.name, cfg.rounds, reset)
			st, used, err := s.Sim(cfg.rounds, true)
			if err != nil {
				log.Fatal(err)
			}
			st.StdOut(used)
			writeReport(st)
		} else {
			p.Printf("%s[WORKERS:%d] [SCENARIO:%s] [ROUNDS:%d]%s\n", green, cfg.worker, cfg.name, cfg.worker*cfg.rounds, reset)
			st, used, err := s.SimMP(cfg.rounds, cfg.worker, true) // 併發
			if err != nil {
				log.Fatal(err)
			}
			st.StdOut(used)
			writeReport(st)
		}
	case scenario.KindWishart:
		if cfg.worker == 1 {
			p.Printf("%s[SCENARIO:%s] [ROUNDS:%d]%s\n", green, cfg.name, cfg.rounds, reset)
			st, used, err := s.SimMat(cfg.rounds, true)
			if err != nil {
				log.Fatal(err)
			}
			st.StdOut(used)
			writeReport(st)
		} else {
			p.Printf("%s[WORKERS:%d] [SCENARIO:%s] [ROUNDS:%d]%s\n", green, cfg.worker, cfg.name, cfg.worker*cfg.rounds, reset)
			st, used, err := s.SimMatMP(cfg.rounds, cfg.worker, true)
			if err != nil {
				log.Fatal(err)
			}
			st.StdOut(used)
			writeReport(st)
		}
	default:
		log.Fatal("unknown scenario kind")
	}
}

// reporter 是 FreqReport / MatReport 共同的輸出面。
type reporter interface {
	WriteWith(w io.Writer, rep stats.Render) error
}

// writeReport 依副檔名選擇 JSON/YAML render，寫出完整報表。
func writeReport(report reporter) {
	if cfg.out == "" {
		return
	}
	var rep stats.Render
	switch strings.ToLower(filepath.Ext(cfg.out)) {
	case ".json":
		rep = &stats.JsonRender{}
	case ".yaml", ".yml":
		rep = &stats.YAMLRender{}
	default:
		log.Fatal("output file must end with .json or .yaml")
	}
	f, err := os.Create(cfg.out)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	if err := report.WriteWith(f, rep); err != nil {
		log.Fatal(err)
	}
}

func (cfg *config) valid() {
	p := message.NewPrinter(language.English)

	// 工作協程檢查(併發數)
	if cfg.worker < 1 {
		log.Fatal("value err : workers must > 0")
	}

	// 轉數檢查
	if cfg.rounds < 1 {
		log.Fatal("value err : rounds must > 0")
	}

	// trace 只支援單線模式（MP 下各 worker 的序列交錯，回放沒有意義）
	if cfg.trace != "" && cfg.worker > 1 {
		p.Printf("trace requires a single worker: %d workers resized to 1\n", cfg.worker)
		cfg.worker = 1
	}
}
