// Command comuneros is a CLI for advisors and operators: deal lookups,
// catalogue edits and the paced onboarding flows.
//
// Usage:
//
//	comuneros deal     --id DEAL
//	comuneros sku      --q TEXT
//	comuneros add-sku  --propuesta P --sku S [--cantidad N]
//	comuneros firma    --propuesta P [--email E]
//	comuneros flows    [--queue Q] [--status S] [--limit N]
//	comuneros status   --workflow-id WID
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"go.temporal.io/sdk/client"

	"github.com/comunidad-solar/comuneros-go/internal/backend"
	"github.com/comunidad-solar/comuneros-go/internal/config"
	"github.com/comunidad-solar/comuneros-go/internal/domain"
	"github.com/comunidad-solar/comuneros-go/internal/temporal/querier"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	switch os.Args[1] {
	case "deal":
		cmdDeal(cfg, os.Args[2:])
	case "sku":
		cmdSKU(cfg, os.Args[2:])
	case "add-sku":
		cmdAddSKU(cfg, os.Args[2:])
	case "firma":
		cmdFirma(cfg, os.Args[2:])
	case "flows":
		cmdFlows(cfg, os.Args[2:])
	case "status":
		cmdStatus(cfg, os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: comuneros <deal|sku|add-sku|firma|flows|status> [flags]")
	os.Exit(1)
}

func restClient(cfg config.Config) *backend.Client {
	if cfg.BackendURL == "" {
		log.Fatal("COMUNEROS_BACKEND_URL is required")
	}
	return backend.New(cfg.BackendURL)
}

func dial(cfg config.Config) client.Client {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		log.Fatalf("unable to create Temporal client: %v", err)
	}
	return c
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("failed to marshal output: %v", err)
	}
	fmt.Println(string(data))
}

func cmdDeal(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("deal", flag.ExitOnError)
	id := fs.String("id", "", "deal ID (required)")
	_ = fs.Parse(args)

	if *id == "" {
		fs.Usage()
		os.Exit(1)
	}

	d, err := restClient(cfg).ObtenerDealPorID(context.Background(), *id)
	if err != nil {
		log.Fatalf("failed to load deal: %v", err)
	}
	printJSON(d)
}

func cmdSKU(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("sku", flag.ExitOnError)
	q := fs.String("q", "", "search text (required)")
	_ = fs.Parse(args)

	if *q == "" {
		fs.Usage()
		os.Exit(1)
	}

	skus, err := restClient(cfg).BuscarSKU(context.Background(), *q)
	if err != nil {
		log.Fatalf("failed to search catalogue: %v", err)
	}
	printJSON(skus)
}

func cmdAddSKU(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("add-sku", flag.ExitOnError)
	propuesta := fs.String("propuesta", "", "proposal ID (required)")
	sku := fs.String("sku", "", "catalogue SKU (required)")
	cantidad := fs.Int("cantidad", 1, "quantity")
	_ = fs.Parse(args)

	if *propuesta == "" || *sku == "" || *cantidad <= 0 {
		fs.Usage()
		os.Exit(1)
	}

	p, err := restClient(cfg).AnadirSKU(context.Background(), backend.AnadirSKURequest{
		PropuestaID: *propuesta,
		SKU:         *sku,
		Cantidad:    *cantidad,
	})
	if err != nil {
		log.Fatalf("failed to add SKU: %v", err)
	}
	if err := domain.ValidatePropuesta(p); err != nil {
		log.Fatalf("backend returned an invalid proposal: %v", err)
	}
	printJSON(p)
}

// cmdFirma runs the contract signature flow and prints the link. A flow
// already running for the proposal is joined.
func cmdFirma(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("firma", flag.ExitOnError)
	propuesta := fs.String("propuesta", "", "proposal ID (required)")
	email := fs.String("email", "", "member email")
	_ = fs.Parse(args)

	if *propuesta == "" {
		fs.Usage()
		os.Exit(1)
	}

	c := dial(cfg)
	defer c.Close()

	fmt.Fprintf(os.Stderr, "running %s\n", querier.ContratoWorkflowID(*propuesta))
	res, err := querier.New(c).ObtenerURLFirma(context.Background(), backend.Envelope{
		Email:       *email,
		PropuestaID: *propuesta,
		FSMState:    domain.FSMPropuestaGenerada,
	})
	if err != nil {
		log.Fatalf("signature flow failed: %v", err)
	}
	printJSON(res)
}

func cmdFlows(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("flows", flag.ExitOnError)
	queue := fs.String("queue", "", "task queue filter")
	status := fs.String("status", "", "status filter (e.g. Running)")
	limit := fs.Int("limit", 20, "maximum results")
	_ = fs.Parse(args)

	c := dial(cfg)
	defer c.Close()

	flows, err := querier.New(c).ListFlows(context.Background(), querier.ListOptions{
		TaskQueue:    *queue,
		StatusFilter: *status,
		PageSize:     *limit,
	})
	if err != nil {
		log.Fatalf("failed to list flows: %v", err)
	}
	printJSON(flows)
}

func cmdStatus(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	wfID := fs.String("workflow-id", "", "workflow ID (required)")
	_ = fs.Parse(args)

	if *wfID == "" {
		fs.Usage()
		os.Exit(1)
	}

	c := dial(cfg)
	defer c.Close()

	st, err := querier.New(c).GetFlowStatus(context.Background(), *wfID)
	if err != nil {
		log.Fatalf("failed to describe flow: %v", err)
	}
	printJSON(st)
}
