package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"aligner-lab-backend/internal/caselock"
	"aligner-lab-backend/internal/catalog"
	"aligner-lab-backend/internal/config"
	"aligner-lab-backend/internal/database"
	"aligner-lab-backend/internal/models"
	"aligner-lab-backend/internal/production"
	"aligner-lab-backend/internal/prompt"
	"aligner-lab-backend/internal/store/gormstore"
)

const usage = `uso:
  labctl transition -id <item> -status <status> [-yes]
  labctl alerts -case <caso>
  labctl bank -case <caso>`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "transition":
		err = runTransition(ctx, os.Args[2:])
	case "alerts":
		err = runAlerts(ctx, os.Args[2:])
	case "bank":
		err = runBank(ctx, os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "erro: %v\n", err)
		if production.KindOf(err) != "" {
			os.Exit(1)
		}
		os.Exit(3)
	}
}

func newService(ctx context.Context) (*production.Service, error) {
	cfg := config.FromEnv()
	database.Init(cfg)
	logger := config.GetLogger()

	opts := []production.Option{production.WithLogger(logger)}
	if cfg.RedisAddress != "" {
		client, err := caselock.Connect(ctx, cfg.RedisAddress)
		if err != nil {
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddress, err)
		}
		opts = append(opts, production.WithLocker(caselock.NewRedis(client, cfg.CaseLockTTL, logger)))
	}
	return production.NewService(gormstore.New(database.DB), catalog.NewDB(database.DB), opts...), nil
}

func runTransition(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("transition", flag.ExitOnError)
	id := fs.Uint("id", 0, "Obrigatório: id do item de trabalho")
	status := fs.String("status", "", "Obrigatório: próximo status ("+pipeline()+")")
	yes := fs.Bool("yes", false, "Confirma o início de produção sem perguntar")
	_ = fs.Parse(args)

	if *id == 0 || *status == "" {
		fs.Usage()
		return errors.New("-id e -status são obrigatórios")
	}

	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	confirm := prompt.Terminal(os.Stdin, os.Stdout)
	if *yes {
		confirm = production.Confirmed(true)
	}

	w, err := svc.TransitionWorkItem(ctx, *id, models.WorkItemStatus(*status), confirm)
	if err != nil {
		return err
	}
	fmt.Printf("item %d agora em %s\n", w.ID, w.Status)
	return nil
}

func runAlerts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("alerts", flag.ExitOnError)
	caseID := fs.Uint("case", 0, "Obrigatório: id do caso")
	_ = fs.Parse(args)
	if *caseID == 0 {
		fs.Usage()
		return errors.New("-case é obrigatório")
	}

	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	c, err := svc.GetCase(ctx, *caseID)
	if err != nil {
		return err
	}

	fmt.Printf("caso %s (%s)\n", c.Code, c.Status)
	if next, ok := production.GetNextDueDate(c); ok {
		fmt.Printf("próxima troca: placa %d em %s\n", next.TrayNumber, next.DueDate.Format("2006-01-02"))
	} else {
		fmt.Println("sem próxima troca prevista")
	}
	for _, a := range svc.ReplenishmentAlerts(c) {
		fmt.Printf("alerta %s: %s placa %d vence em %s (%d dias)\n",
			a.Level, a.Arch, a.TrayNumber, a.DueDate.Format("2006-01-02"), a.DaysToDue)
	}
	return nil
}

func runBank(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bank", flag.ExitOnError)
	caseID := fs.Uint("case", 0, "Obrigatório: id do caso")
	_ = fs.Parse(args)
	if *caseID == 0 {
		fs.Usage()
		return errors.New("-case é obrigatório")
	}

	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	s, err := svc.BankSummary(ctx, *caseID)
	if err != nil {
		return err
	}
	for _, leg := range []models.Arch{models.ArchUpper, models.ArchLower} {
		a, ok := s.ByArch[leg]
		if !ok {
			continue
		}
		fmt.Printf("%-9s contratadas %3d  disponíveis %3d  em uso %3d  defeituosas %3d\n",
			leg, a.Contracted, a.Available, a.InProductionOrDelivered, a.Defective)
	}
	return nil
}

func pipeline() string {
	out := ""
	for i, s := range models.WorkItemPipeline {
		if i > 0 {
			out += ", "
		}
		out += string(s)
	}
	return out
}
