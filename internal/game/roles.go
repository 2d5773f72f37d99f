package game

// SaboteurCount 依人數決定破壞者數量
func SaboteurCount(players int) int {
	switch {
	case players <= 4:
		return 1
	case players <= 7:
		return 2
	default:
		return 3
	}
}

// GentilPool 回傳指定人數下好人陣營可分配的職業；超出池子的好人一律為平民
func GentilPool(players int) []Role {
	switch players {
	case 4:
		return []Role{RoleChef, RoleMecano, RoleDepanneur}
	case 5:
		return []Role{RoleChef, RoleMecano, RoleComptable, RoleVanilla}
	case 6:
		return []Role{RoleChef, RoleMecano, RoleMecano, RoleComptable}
	case 7, 8:
		return []Role{RoleChef, RoleMecano, RoleMecano, RoleComptable, RoleDepanneur}
	default:
		return nil
	}
}

// AssignRoles 隨機分配陣營與職業
func AssignRoles(players []*Player, rng Random) {
	order := shuffled(rng, players)
	saboteurs := SaboteurCount(len(order))
	if saboteurs > len(order) {
		saboteurs = len(order)
	}
	pool := shuffled(rng, GentilPool(len(order)))

	for i, p := range order {
		if i < saboteurs {
			p.Team = TeamSaboteurs
			p.Role = RoleSaboteur
			continue
		}
		p.Team = TeamGentils
		p.Role = RoleVanilla
		if idx := i - saboteurs; idx < len(pool) {
			p.Role = pool[idx]
		}
	}
}
