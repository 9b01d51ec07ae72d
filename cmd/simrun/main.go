// simrun is the headless simulation runner. It loads a map and tuning
// specs, optionally executes a tengo scenario script, then advances the
// world at a fixed timestep, streaming snapshots to any connected
// websocket observers.
package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"blockcity/citymap"
	"blockcity/observer"
	"blockcity/prefabs"
	"blockcity/sim"
)

func main() {
	mapPath := flag.String("map", "maps/downtown.yaml", "map file")
	specDir := flag.String("specs", "", "on-disk spec directory (overrides embedded specs, watched for changes)")
	scenarioPath := flag.String("scenario", "", "tengo scenario script")
	addr := flag.String("addr", "", "observer websocket listen address, e.g. :8420 (empty disables)")
	ticks := flag.Int("ticks", 3600, "ticks to run after the scenario (0 runs forever)")
	seed := flag.Int64("seed", 1, "simulation RNG seed")
	physics := flag.Bool("physics", false, "attach rigid bodies to vehicles that request them")
	realtime := flag.Bool("realtime", false, "pace ticks to wall clock")
	logLevel := flag.String("log-level", "info", "logrus level")
	flag.Parse()

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.WithField("level", *logLevel).Warn("unknown log level, using info")
	}

	m, err := citymap.LoadGridMap(*mapPath)
	if err != nil {
		log.WithError(err).Fatal("load map")
	}
	w, h, levels := m.Bounds()
	log.WithFields(logrus.Fields{"map": *mapPath, "width": w, "height": h, "levels": levels}).Info("map loaded")

	var watcher *prefabs.Watcher
	if *specDir != "" {
		prefabs.SetDir(*specDir)
		watcher, err = prefabs.NewWatcher(*specDir)
		if err != nil {
			log.WithError(err).Fatal("watch spec dir")
		}
		defer watcher.Close()
	}

	s := sim.New(m, log, sim.Config{Seed: *seed, Physics: *physics})
	if err := prefabs.ApplySurfaces(s.Surfaces); err != nil {
		log.WithError(err).Fatal("apply surface specs")
	}
	log.WithField("waypoints", s.Nav.Network.Len()).Info("road network built")

	var srv *observer.Server
	if *addr != "" {
		srv = observer.NewServer(log)
		mux := http.NewServeMux()
		mux.Handle("/ws", srv)
		go func() {
			log.WithField("addr", *addr).Info("observer listening")
			if err := http.ListenAndServe(*addr, mux); err != nil {
				log.WithError(err).Error("observer server stopped")
			}
		}()
	}

	run := &runner{sim: s, log: log, srv: srv}

	if *scenarioPath != "" {
		if err := runScenario(run, *scenarioPath); err != nil {
			log.WithError(err).Fatal("scenario failed")
		}
	}

	interval := time.Duration(float64(time.Second) * s.TimeStep())
	var pacer *time.Ticker
	if *realtime {
		pacer = time.NewTicker(interval)
		defer pacer.Stop()
	}

	start := time.Now()
	for *ticks == 0 || s.Tick() < uint64(*ticks) {
		run.step()

		if watcher != nil {
			select {
			case name := <-watcher.Events:
				if err := prefabs.ApplySurfaces(s.Surfaces); err != nil {
					log.WithError(err).Warn("spec reload rejected")
				} else {
					log.WithField("file", name).Info("specs reloaded")
				}
			case err := <-watcher.Errors:
				log.WithError(err).Warn("spec watcher")
			default:
			}
		}

		if pacer != nil {
			<-pacer.C
		}
	}
	log.WithFields(logrus.Fields{
		"ticks":   s.Tick(),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("simulation finished")
}

// runner advances the sim one tick and ships the results to observers.
type runner struct {
	sim *sim.Sim
	log *logrus.Logger
	srv *observer.Server
}

func (r *runner) step() {
	r.sim.Step()
	events := r.sim.DrainEvents()
	if r.srv == nil || r.srv.SubscriberCount() == 0 {
		return
	}
	r.srv.Broadcast(observer.BuildSnapshot(r.sim))
	if len(events) > 0 {
		r.srv.Broadcast(observer.BuildEventFrame(r.sim.Tick(), events))
	}
}
