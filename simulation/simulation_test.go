package simulation_test

import (
	"fmt"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tablesim/tablesim/sim"
	"github.com/tablesim/tablesim/simulation"
	"github.com/tablesim/tablesim/table"
	"github.com/tablesim/tablesim/user"
)

func buildSimulation() *simulation.Simulation {
	outputPath := filepath.Join(GinkgoT().TempDir(), "test_run")
	return simulation.MakeBuilder().
		WithoutMonitoring().
		WithOutputFileName(outputPath).
		Build()
}

// buildExperiment wires numTables tables and numUsers users into the
// simulation, all users accessing all tables.
func buildExperiment(
	s *simulation.Simulation,
	numTables, numUsers int,
	readProbability float64,
	horizon sim.VTimeInSec,
) ([]*table.Comp, []*user.Comp) {
	tables := make([]*table.Comp, numTables)
	tableHandlers := make([]sim.Handler, numTables)
	for i := 0; i < numTables; i++ {
		tables[i] = table.MakeBuilder().
			WithEngine(s.GetEngine()).
			WithSink(s.GetSink()).
			WithTableID(i).
			Build(fmt.Sprintf("Table%d", i))
		tableHandlers[i] = tables[i]
		s.RegisterComponent(tables[i])
	}

	users := make([]*user.Comp, numUsers)
	for i := 0; i < numUsers; i++ {
		users[i] = user.MakeBuilder().
			WithEngine(s.GetEngine()).
			WithSink(s.GetSink()).
			WithUserID(i).
			WithLambda(1.0).
			WithReadProbability(readProbability).
			WithServiceTime(1.0).
			WithHorizon(horizon).
			WithTables(tableHandlers).
			WithSeed(int64(i) + 1).
			Build(fmt.Sprintf("User%d", i))
		s.RegisterComponent(users[i])

		for _, t := range tables {
			t.RegisterUser(i, users[i])
		}
	}

	return tables, users
}

var _ = Describe("Simulation", func() {
	var s *simulation.Simulation

	BeforeEach(func() {
		s = buildSimulation()
	})

	AfterEach(func() {
		s.Terminate()
	})

	It("should find registered components by name", func() {
		tables, users := buildExperiment(s, 2, 1, 0.5, 10)

		Expect(s.GetComponentByName("Table1")).To(BeIdenticalTo(tables[1]))
		Expect(s.GetComponentByName("User0")).To(BeIdenticalTo(users[0]))
		Expect(s.Components()).To(HaveLen(3))
	})

	It("should reject duplicate component names", func() {
		buildExperiment(s, 1, 1, 0.5, 10)

		dup := table.MakeBuilder().
			WithEngine(s.GetEngine()).
			WithTableID(0).
			Build("Table0")

		Expect(func() { s.RegisterComponent(dup) }).To(Panic())
	})

	It("should run a read-only workload with no writes", func() {
		horizon := sim.VTimeInSec(10)
		tables, users := buildExperiment(s, 1, 1, 1.0, horizon)

		users[0].Start()
		Expect(s.GetEngine().Run()).To(Succeed())

		end := s.GetEngine().CurrentTime()
		if end < horizon {
			end = horizon
		}

		tr := tables[0].Finalize(end)
		ur := users[0].Finalize(end)

		Expect(tr.TotalWrites).To(BeZero())
		Expect(ur.TotalWrites).To(BeZero())
		Expect(tr.TotalServed).To(Equal(ur.TotalAccesses))
		Expect(users[0].OutstandingRequests()).To(BeZero())
	})

	It("should conserve accesses across users and tables", func() {
		horizon := sim.VTimeInSec(50)
		tables, users := buildExperiment(s, 2, 3, 0.7, horizon)

		for _, u := range users {
			u.Start()
		}
		Expect(s.GetEngine().Run()).To(Succeed())

		end := s.GetEngine().CurrentTime()
		if end < horizon {
			end = horizon
		}

		var issued, served uint64
		for _, u := range users {
			r := u.Finalize(end)
			issued += r.TotalAccesses
			Expect(u.OutstandingRequests()).To(BeZero())
			Expect(u.ConsistencyFaults()).To(BeZero())
		}
		for _, t := range tables {
			r := t.Finalize(end)
			served += r.TotalServed
			Expect(t.ConsistencyFaults()).To(BeZero())
			Expect(r.Utilization).To(SatisfyAll(
				BeNumerically(">=", 0.0),
				BeNumerically("<=", 1.0),
			))
		}

		Expect(served).To(Equal(issued))
	})
})
