package typescript

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodMac/coupling-lens/core"
	"github.com/CodMac/coupling-lens/coupling"
	"github.com/CodMac/coupling-lens/model"
	"github.com/CodMac/coupling-lens/parser"
)

func collectSource(t *testing.T, lang core.Language, filePath string, source []byte) *model.SourceUnit {
	t.Helper()
	p, err := parser.NewParser(lang)
	require.NoError(t, err)
	defer p.Close()

	unit, err := parser.CollectSource(p, lang, filePath, source)
	require.NoError(t, err)
	return unit
}

func collectFile(t *testing.T, name string) *model.SourceUnit {
	t.Helper()
	path := filepath.Join("testdata", name)
	source, err := os.ReadFile(path)
	require.NoError(t, err)
	return collectSource(t, core.LangTypeScript, path, source)
}

func callees(m model.MethodDecl) []string {
	out := make([]string, 0, len(m.Calls))
	for _, c := range m.Calls {
		out = append(out, c.Callee)
	}
	return out
}

func TestTypeScriptCollector_Plant(t *testing.T) {
	unit := collectFile(t, "plant.ts")

	require.Len(t, unit.Classes, 1)
	plant := unit.Classes[0]
	assert.Equal(t, "Plant", plant.Name)
	assert.True(t, plant.Exported)
	assert.Equal(t, []model.Param{{Name: "ground", Type: "Ground"}, {Name: "water", Type: "Water"}}, plant.Constructor)

	require.Len(t, plant.Methods, 2)
	assert.Equal(t, "plantInGround", plant.Methods[0].Name)
	assert.Equal(t, []string{"this.ground.plantG", "this.ground.plantG", "console.log"}, callees(plant.Methods[0]))
	assert.Equal(t, "plantInWater", plant.Methods[1].Name)
	assert.Equal(t, []string{"this.water.plant"}, callees(plant.Methods[1]))
}

func TestTypeScriptCollector_ParameterShapes(t *testing.T) {
	const src = `
import { Injectable } from "@nestjs/common";

@Injectable()
export class UserService {
  private readonly logger = new Logger(UserService.name);

  constructor(
    private readonly repo: Repository<User>,
    public mailer?: mail.Mailer,
    config,
    protected name: string,
  ) {}

  get count(): number {
    return this.repo.count();
  }

  async find(id: string): Promise<User> {
    this.logger.log("find");
    return this.repo.findOne({ id }).then((u) => this.mailer.notify(u));
  }
}

class Internal {}

export class Broken {
  constructor({ a, b }: Deps) {}
}
`
	unit := collectSource(t, core.LangTypeScript, "user.service.ts", []byte(src))

	require.Len(t, unit.Classes, 3)
	svc := unit.Classes[0]
	assert.Equal(t, []model.Param{
		{Name: "repo", Type: "Repository<User>"},
		{Name: "mailer", Type: "Mailer"},
		{Name: "config", Type: "any"},
		{Name: "name", Type: "string"},
	}, svc.Constructor)

	// get 访问器被排除
	require.Len(t, svc.Methods, 1)
	assert.Equal(t, "find", svc.Methods[0].Name)
	assert.ElementsMatch(t, []string{
		"this.logger.log",
		"this.repo.findOne({ id }).then",
		"this.repo.findOne",
		"this.mailer.notify",
	}, callees(svc.Methods[0]))

	internal := unit.Classes[1]
	assert.Equal(t, "Internal", internal.Name)
	assert.False(t, internal.Exported)
	assert.False(t, internal.ConstructorUnresolved)

	assert.True(t, unit.Classes[2].ConstructorUnresolved)
}

func TestTypeScriptCoupling_Garden(t *testing.T) {
	units := []*model.SourceUnit{
		collectFile(t, "ground.ts"),
		collectFile(t, "plant.ts"),
		collectFile(t, "water.ts"),
	}
	policy, err := core.NewPatternFilter(core.FilterOptions{Level: core.LevelBalanced, Language: core.LangTypeScript})
	require.NoError(t, err)

	p, err := coupling.NewBuilder(policy, coupling.SkipUnresolved, false, slog.New(slog.DiscardHandler)).Build(units)
	require.NoError(t, err)

	ground, _ := p.Get("Ground")
	water, ok := ground.Dependency("water")
	require.True(t, ok)
	assert.Equal(t, "Water", water.TargetType)
	assert.Equal(t, 1, water.TimesCalled("plant"))

	plant, _ := p.Get("Plant")
	groundEdge, _ := plant.Dependency("ground")
	plantWater, _ := plant.Dependency("water")
	assert.Equal(t, 2, groundEdge.TimesCalled("plantG"))
	assert.Equal(t, 1, plantWater.TimesCalled("plant"))

	waterEntry, _ := p.Get("Water")
	assert.Equal(t, []string{"Ground", "Plant"}, waterEntry.Dependents.Keys())
}

func TestTypeScriptCollector_TSX(t *testing.T) {
	const src = `
export class Widget {
  constructor(private store: Store) {}
  render() {
    this.store.select("x");
    return <div>{this.store.value()}</div>;
  }
}
`
	unit := collectSource(t, core.LangTSX, "widget.tsx", []byte(src))

	require.Len(t, unit.Classes, 1)
	assert.Equal(t, []model.Param{{Name: "store", Type: "Store"}}, unit.Classes[0].Constructor)
	assert.ElementsMatch(t, []string{"this.store.select", "this.store.value"}, callees(unit.Classes[0].Methods[0]))
}

func TestTypeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Water", "Water"},
		{"Repository<User>", "Repository<User>"},
		{"Map<string,\n    number>", "Map<string, number>"},
		{"mail.Mailer", "Mailer"},
		{"ns.Repo<a.User>", "Repo<a.User>"},
		{"Array<Water>", "Water[]"},
		{"Array<Array<Water>>", "Water[][]"},
		{"Array<A | B>", "(A | B)[]"},
		{"Water[]", "Water[]"},
		{"Array<A> | Array<B>", "Array<A> | Array<B>"},
		{"{ debug: boolean }", "{ debug: boolean }"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, typeText(tt.in))
		})
	}
}

const genericSource = `
export class Ledger {
  constructor(
    private users: Repository<User>,
    private orders: Repository<Order>,
    private pending: Promise<Water>,
    private list: Array<Water>,
    private arr: Water[],
  ) {}

  settle() {
    this.users.save();
    this.orders.save();
    this.list.push();
  }
}
`

func TestTypeScriptCollector_GenericTypesKept(t *testing.T) {
	unit := collectSource(t, core.LangTypeScript, "ledger.ts", []byte(genericSource))

	require.Len(t, unit.Classes, 1)
	assert.Equal(t, []model.Param{
		{Name: "users", Type: "Repository<User>"},
		{Name: "orders", Type: "Repository<Order>"},
		{Name: "pending", Type: "Promise<Water>"},
		{Name: "list", Type: "Water[]"},
		{Name: "arr", Type: "Water[]"},
	}, unit.Classes[0].Constructor)
}

func TestTypeScriptCoupling_GenericIgnorePattern(t *testing.T) {
	unit := collectSource(t, core.LangTypeScript, "ledger.ts", []byte(genericSource))

	build := func(t *testing.T, opts core.FilterOptions) *model.ClassEntry {
		t.Helper()
		policy, err := core.NewPatternFilter(opts)
		require.NoError(t, err)
		p, err := coupling.NewBuilder(policy, coupling.SkipUnresolved, false, slog.New(slog.DiscardHandler)).
			Build([]*model.SourceUnit{unit})
		require.NoError(t, err)
		ledger, ok := p.Get("Ledger")
		require.True(t, ok)
		return ledger
	}

	t.Run("raw level with generic wrapper pattern", func(t *testing.T) {
		ledger := build(t, core.FilterOptions{IgnoreDependencies: []string{"Promise<.*>"}, Level: core.LevelRaw})
		assert.Equal(t, []string{"users", "orders", "list", "arr"}, ledger.Dependencies.Keys())

		users, _ := ledger.Dependency("users")
		orders, _ := ledger.Dependency("orders")
		assert.Equal(t, "Repository<User>", users.TargetType)
		assert.Equal(t, "Repository<Order>", orders.TargetType)
		assert.Equal(t, 1, users.TimesCalled("save"))
		assert.Equal(t, 1, orders.TimesCalled("save"))
	})

	t.Run("balanced level drops builtin wrapper by its base name", func(t *testing.T) {
		ledger := build(t, core.FilterOptions{Level: core.LevelBalanced, Language: core.LangTypeScript})
		assert.False(t, ledger.Dependencies.Has("pending"))
		assert.True(t, ledger.Dependencies.Has("list"))
	})
}

func TestTypeScriptCollector_InheritedConstructor(t *testing.T) {
	const src = `
class Base {
  constructor(protected water: Water, private log: Logger) {}
}

export class Child extends Base {
  grow() {
    this.water.plant();
    this.water.plant();
  }
}

export class GrandChild extends Child implements Growable {}

export class Own extends Base {
  constructor(private ground: Ground) { super(null, null); }
}

export class Orphan extends ExternalBase {
  grow() { this.water.plant(); }
}

export class Loop extends Loop {}
`
	unit := collectSource(t, core.LangTypeScript, "family.ts", []byte(src))
	require.Len(t, unit.Classes, 6)

	byName := make(map[string]model.ClassDecl)
	for _, c := range unit.Classes {
		byName[c.Name] = c
	}
	baseParams := []model.Param{{Name: "water", Type: "Water"}, {Name: "log", Type: "Logger"}}

	assert.Equal(t, baseParams, byName["Child"].Constructor)
	assert.False(t, byName["Child"].ConstructorUnresolved)
	assert.Equal(t, baseParams, byName["GrandChild"].Constructor)
	assert.Equal(t, []model.Param{{Name: "ground", Type: "Ground"}}, byName["Own"].Constructor)

	// 基类不在当前文件中，交给 on_unresolved 策略处理
	assert.True(t, byName["Orphan"].ConstructorUnresolved)
	assert.Empty(t, byName["Orphan"].Constructor)
	assert.True(t, byName["Loop"].ConstructorUnresolved)

	policy, err := core.NewPatternFilter(core.FilterOptions{Level: core.LevelRaw})
	require.NoError(t, err)
	p, err := coupling.NewBuilder(policy, coupling.SkipUnresolved, false, slog.New(slog.DiscardHandler)).
		Build([]*model.SourceUnit{unit})
	require.NoError(t, err)

	child, ok := p.Get("Child")
	require.True(t, ok)
	water, ok := child.Dependency("water")
	require.True(t, ok)
	assert.Equal(t, 2, water.TimesCalled("plant"))
	assert.False(t, p.Has("Orphan"))
}
