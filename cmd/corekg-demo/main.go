// Command corekg-demo exercises the full pipeline end to end against a
// live relational store and graph mirror: create a project, seed one
// document's text, induce an ontology, build the knowledge graph, and
// answer one query against it. Intended as a smoke test and a worked
// usage example, mirroring the teacher's example/ main.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kgraph/corekg"
	"github.com/kgraph/corekg/config"
	"github.com/kgraph/corekg/model"
	"github.com/kgraph/corekg/textstore"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("corekg-demo: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	textDir := os.Getenv("COREKG_DEMO_TEXT_DIR")
	if textDir == "" {
		textDir = "./corekg-demo-texts"
	}
	texts, err := textstore.NewFileStore(textDir)
	if err != nil {
		return fmt.Errorf("create text store: %w", err)
	}

	runtime, err := corekg.NewRuntime(cfg, texts)
	if err != nil {
		return fmt.Errorf("init runtime: %w", err)
	}
	defer runtime.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	project, err := runtime.Projects.CreateProject("corekg-demo", model.Metadata{"source": "demo"})
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	log.Printf("created project %s", project.ID)

	const sampleText = `Alice Chen is the lead engineer on the Atlas project at Northwind Labs.
Bob Okafor manages the Atlas project and works closely with Alice Chen.
Northwind Labs is headquartered in Austin and sponsors the Atlas project.`

	doc, err := runtime.Documents.CreateDocument(project.ID, "sample.txt", int64(len(sampleText)), 1)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	if err := texts.WriteText(doc.ID, sampleText); err != nil {
		return fmt.Errorf("write document text: %w", err)
	}
	log.Printf("created document %s", doc.ID)

	proposal, err := runtime.Inducer.InduceSchemas(ctx, project.ID, sampleText, nil)
	if err != nil {
		return fmt.Errorf("induce schemas: %w", err)
	}
	log.Printf("induced %d schema(s), tier=%d, %d rejected", len(proposal.Schemas), proposal.SourceTier, len(proposal.Rejected))

	stats, err := runtime.Constructor.BuildKnowledge(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("build knowledge: %w", err)
	}
	log.Printf("constructed: %d documents, %d chunks, %d nodes, %d edges",
		stats.DocumentsProcessed, stats.ChunksCreated, stats.NodesCreated, stats.EdgesCreated)

	runtime.StartGraphMirrorDrain(ctx, project.ID, cfg.GraphMirrorDrainInterval)

	query := "Who works on the Atlas project?"
	answer, err := runtime.Agent.Answer(ctx, project.ID, query, nil)
	if err != nil {
		return fmt.Errorf("answer query: %w", err)
	}

	fmt.Printf("\nQ: %s\nA: %s\n", query, answer.Text)
	for _, used := range answer.ToolsUsed {
		fmt.Printf("  tool=%s status=%s count=%d\n", used.Tool, used.Status, used.Count)
	}
	for _, id := range answer.Citations {
		fmt.Printf("  citation: %s\n", id)
	}

	return nil
}
