// Command statedemo drives LocalizedResource state machines through a
// scripted event scenario and prints the trace and the transition counters.
// With -dot it prints the DOT rendering of the topology instead and exits.
//
// Usage:
//
//	statedemo [-scenario scenario.yaml] [-debug]
//	statedemo -dot
//
// A scenario file lists resources and the event kinds to deliver to each:
//
//	resources:
//	  - path: hdfs://nn/app/job.jar
//	    events: [REQUEST, LOCALIZED, RELEASE, REQUEST]
package main

import (
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/maobaolong/statemachine-demo/dispatch"
	"github.com/maobaolong/statemachine-demo/log"
	"github.com/maobaolong/statemachine-demo/metrics"
	"github.com/maobaolong/statemachine-demo/resource"
	"github.com/maobaolong/statemachine-demo/state"
	"github.com/maobaolong/statemachine-demo/sugar"
)

type resourceScript struct {
	Path   string   `yaml:"path"`
	Events []string `yaml:"events"`
}

type scenario struct {
	Resources []resourceScript `yaml:"resources"`
}

var defaultScenario = scenario{
	Resources: []resourceScript{
		{Path: "hdfs://nn/app/job.jar", Events: []string{"REQUEST", "LOCALIZED", "RELEASE", "REQUEST"}},
		{Path: "hdfs://nn/app/files.tgz", Events: []string{"REQUEST", "LOCALIZATION_FAILED", "REQUEST"}},
		{Path: "hdfs://nn/app/archive.zip", Events: []string{"RECOVERED", "REQUEST", "RELEASE"}},
	},
}

func main() {
	scenarioPath := flag.String("scenario", "", "yaml scenario file, built-in scenario when empty")
	dotOnly := flag.Bool("dot", false, "print the topology as GraphViz DOT and exit")
	debug := flag.Bool("debug", false, "emit debug logs")
	flag.Parse()
	log.SetDebug(*debug)

	if *dotOnly {
		fmt.Print(state.ExportDot(resource.Topology(), "LocalizedResource"))
		return
	}

	sc := defaultScenario
	if *scenarioPath != "" {
		raw, err := os.ReadFile(*scenarioPath)
		if err != nil {
			log.Log.Fatalf("component=statedemo at=read-scenario error=%q", err)
		}
		sc = scenario{}
		if err := yaml.Unmarshal(raw, &sc); err != nil {
			log.Log.Fatalf("component=statedemo at=parse-scenario error=%q", err)
		}
	}

	counts := metrics.NewTransitionCounts[*resource.LocalizedResource, resource.ResourceState, resource.Event]("resources")
	topology := resource.NewTopology(counts)

	var mu sync.Mutex
	resources := make(map[string]*resource.LocalizedResource)
	var ordered []*resource.LocalizedResource
	var pending sync.WaitGroup

	loop := dispatch.NewLoop[resource.Event]("resource-events", 64,
		dispatch.HandlerFunc[resource.Event](func(e resource.Event) error {
			defer pending.Done()
			mu.Lock()
			r := resources[e.Request.ID]
			mu.Unlock()
			return r.Handle(e)
		}))
	loop.SetDispatcher(dispatch.OperandDispatcher(func(e resource.Event) string { return e.Request.ID }, 16))
	if err := loop.Init(); err != nil {
		log.Log.Fatalf("component=statedemo at=loop-init error=%q", err)
	}
	if err := loop.Start(); err != nil {
		log.Log.Fatalf("component=statedemo at=loop-start error=%q", err)
	}

	for _, rs := range sc.Resources {
		req := resource.NewRequest(rs.Path)
		r := resource.New(req, loop, resource.WithTopology(topology))
		mu.Lock()
		resources[req.ID] = r
		mu.Unlock()
		ordered = append(ordered, r)

		for _, name := range rs.Events {
			kind, err := resource.ParseEventKind(name)
			if err != nil {
				log.Log.Fatalf("component=statedemo at=parse-event error=%q", err)
			}
			pending.Add(1)
			if err := loop.Put(resource.Event{Kind: kind, Request: req}); err != nil {
				pending.Done()
				log.Log.Fatalf("component=statedemo at=put-event error=%q", err)
			}
		}
	}

	pending.Wait()
	if err := loop.Stop(); err != nil {
		log.Log.Fatalf("component=statedemo at=loop-stop error=%q", err)
	}

	fmt.Println()
	for _, r := range ordered {
		fmt.Printf("%s state=%s %s\n", r.Request().Path, r.State(), sugar.Pretty(r.Request()))
	}

	sink := metrics.NewFileSink(counts.Context(), counts.Registry(), os.Stdout, time.Minute)
	sink.PutMetrics()
}
