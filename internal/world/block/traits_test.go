package block

import "testing"

func TestParseVariantKeyCanonical(t *testing.T) {
	ts := ParseVariantKey("Collision=On;Effect=Burn")

	if !ts.Collision {
		t.Error("Ожидался включённый трейт Collision")
	}
	if ts.Effect != "Burn" {
		t.Errorf("Ожидался эффект Burn, получен %q", ts.Effect)
	}
}

func TestParseVariantKeyOrderIndependent(t *testing.T) {
	a := ParseVariantKey("Collision=On;Effect=Burn")
	b := ParseVariantKey("Effect=Burn;Collision=On")

	if !a.Equals(b) {
		t.Errorf("Наборы трейтов должны совпадать независимо от порядка: %+v != %+v", a, b)
	}
}

func TestParseVariantKeyIgnoresGarbage(t *testing.T) {
	ts := ParseVariantKey("  Collision = On ; Unknown=X ;; мусор ; Effect= Freeze ")

	if !ts.Collision {
		t.Error("Ожидался включённый трейт Collision несмотря на пробелы")
	}
	if ts.Effect != "Freeze" {
		t.Errorf("Ожидался эффект Freeze, получен %q", ts.Effect)
	}
}

func TestParseVariantKeyEmpty(t *testing.T) {
	ts := ParseVariantKey("")
	if !ts.IsEmpty() {
		t.Errorf("Пустой ключ должен давать пустой набор трейтов, получен %+v", ts)
	}
}

func TestParseVariantKeyCollisionOff(t *testing.T) {
	// Любое значение кроме "On" не включает коллизию
	ts := ParseVariantKey("Collision=Off")
	if ts.Collision {
		t.Error("Collision=Off не должен включать коллизионный трейт")
	}
}

func TestTraitSetKeyCanonicalOrder(t *testing.T) {
	ts := TraitSet{Collision: true, Effect: "Burn"}
	if got := ts.Key(); got != "Collision=On;Effect=Burn" {
		t.Errorf("Ожидался канонический ключ Collision=On;Effect=Burn, получен %q", got)
	}

	// Канонизация произвольной записи
	canonical := ParseVariantKey("Effect=Burn;Collision=On").Key()
	if canonical != "Collision=On;Effect=Burn" {
		t.Errorf("Ожидалась каноническая форма, получена %q", canonical)
	}
}

func TestTraitSetKeyRoundTrip(t *testing.T) {
	cases := []TraitSet{
		{},
		{Collision: true},
		{Effect: "Slow"},
		{Collision: true, Effect: "Slow"},
	}
	for _, ts := range cases {
		if got := ParseVariantKey(ts.Key()); !got.Equals(ts) {
			t.Errorf("Round-trip набора трейтов %+v дал %+v", ts, got)
		}
	}
}

func TestBlockTypeIsArchetype(t *testing.T) {
	arch := &BlockType{ID: 1, ArchetypeID: 1, Name: "Stone"}
	if !arch.IsArchetype() {
		t.Error("Запись без VariantKey должна быть архетипом")
	}

	variant := &BlockType{ID: 2, ArchetypeID: 1, VariantKey: "Collision=On"}
	if variant.IsArchetype() {
		t.Error("Запись с VariantKey не должна быть архетипом")
	}
}

func TestBlockTypeCloneIndependent(t *testing.T) {
	original := &BlockType{
		ID:          1,
		ArchetypeID: 1,
		Name:        "Lava",
		Effect: &Effect{
			Name:      "Burn",
			Kind:      EffectDebuff,
			Duration:  3,
			Stacking:  StackingRefresh,
			Modifiers: []Modifier{{Stat: "hp", Op: "add", Value: -5}},
		},
	}

	clone := original.Clone()
	clone.Effect.Name = "Freeze"
	clone.Effect.Modifiers[0].Value = 100

	if original.Effect.Name != "Burn" {
		t.Error("Изменение клона не должно затрагивать оригинальный эффект")
	}
	if original.Effect.Modifiers[0].Value != -5 {
		t.Error("Изменение модификаторов клона не должно затрагивать оригинал")
	}
}
