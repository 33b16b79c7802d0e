package user

import (
	"fmt"
	"math/rand"

	"github.com/tablesim/tablesim/sim"
	"github.com/tablesim/tablesim/stats"
)

// Builder can build user components.
type Builder struct {
	engine sim.Engine
	sink   stats.Sink

	userID          int
	lambda          float64
	readProbability float64
	distribution    TableDistribution
	lognormalM      float64
	lognormalS      float64
	serviceTime     sim.VTimeInSec
	horizon         sim.VTimeInSec
	tables          []sim.Handler
	seed            int64
}

// MakeBuilder returns a new Builder
func MakeBuilder() Builder {
	return Builder{
		sink:            stats.NullSink{},
		lambda:          1.0,
		readProbability: 0.5,
		serviceTime:     1.0,
		lognormalS:      1.0,
	}
}

// WithEngine sets the engine that drives the user.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithSink sets the statistics sink the user reports to.
func (b Builder) WithSink(sink stats.Sink) Builder {
	b.sink = sink
	return b
}

// WithUserID sets the ID of the user.
func (b Builder) WithUserID(id int) Builder {
	b.userID = id
	return b
}

// WithLambda sets the arrival rate of the user. The inter-arrival times
// are exponential with mean 1/lambda.
func (b Builder) WithLambda(lambda float64) Builder {
	b.lambda = lambda
	return b
}

// WithReadProbability sets the probability that an access is a read.
func (b Builder) WithReadProbability(p float64) Builder {
	b.readProbability = p
	return b
}

// WithTableDistribution sets how the user selects target tables.
func (b Builder) WithTableDistribution(d TableDistribution) Builder {
	b.distribution = d
	return b
}

// WithLognormalParams sets the parameters of the lognormal table-selection
// distribution.
func (b Builder) WithLognormalParams(m, s float64) Builder {
	b.lognormalM = m
	b.lognormalS = s
	return b
}

// WithServiceTime sets the fixed service time stamped on every request.
func (b Builder) WithServiceTime(t sim.VTimeInSec) Builder {
	b.serviceTime = t
	return b
}

// WithHorizon sets the simulated time after which the user stops issuing
// accesses.
func (b Builder) WithHorizon(t sim.VTimeInSec) Builder {
	b.horizon = t
	return b
}

// WithTables sets the handlers of the tables the user can access, indexed
// by table ID.
func (b Builder) WithTables(tables []sim.Handler) Builder {
	b.tables = tables
	return b
}

// WithSeed seeds the random source owned by the user.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// Build builds a new user component. Invalid parameters are configuration
// faults and abort the run before any event is processed.
func (b Builder) Build(name string) *Comp {
	b.parametersMustBeValid()

	c := &Comp{
		ComponentBase:   sim.NewComponentBase(name),
		engine:          b.engine,
		sink:            b.sink,
		rng:             rand.New(rand.NewSource(b.seed)),
		userID:          b.userID,
		lambda:          b.lambda,
		readProbability: b.readProbability,
		distribution:    b.distribution,
		lognormalM:      b.lognormalM,
		lognormalS:      b.lognormalS,
		serviceTime:     b.serviceTime,
		horizon:         b.horizon,
		tables:          b.tables,
		outstanding:     make(map[string]bool),
	}

	return c
}

func (b Builder) parametersMustBeValid() {
	if b.engine == nil {
		panic("user requires an engine")
	}

	if b.lambda <= 0 {
		panic(fmt.Sprintf("lambda must be positive, got %f", b.lambda))
	}

	if b.readProbability < 0 || b.readProbability > 1 {
		panic(fmt.Sprintf("read probability must be in [0, 1], got %f",
			b.readProbability))
	}

	if b.serviceTime < 0 {
		panic(fmt.Sprintf("service time must not be negative, got %f",
			b.serviceTime))
	}

	if b.distribution != Uniform && b.distribution != Lognormal {
		panic(fmt.Sprintf("unknown table distribution %d", b.distribution))
	}

	if len(b.tables) == 0 {
		panic("user requires at least one table")
	}
}
