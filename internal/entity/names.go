package entity

// itemNames names the consumables, indexed by item ID.
var itemNames = [128]string{
	0x00: "Potion",
	0x01: "Hi-Potion",
	0x02: "X-Potion",
	0x03: "Ether",
	0x04: "Turbo Ether",
	0x05: "Elixir",
	0x06: "Megalixir",
	0x07: "Phoenix Down",
	0x08: "Antidote",
	0x09: "Soft",
	0x0A: "Maiden's Kiss",
	0x0B: "Cornucopia",
	0x0C: "Echo Screen",
	0x0D: "Hyper",
	0x0E: "Tranquilizer",
	0x0F: "Remedy",
	0x10: "Smoke Bomb",
	0x11: "Speed Drink",
	0x12: "Hero Drink",
	0x13: "Vaccine",
	0x14: "Grenade",
	0x15: "Shrapnel",
	0x16: "Right Arm",
	0x17: "Hourglass",
	0x18: "Kiss of Death",
	0x19: "Spider Web",
	0x1A: "Dream Powder",
	0x1B: "Mute Mask",
	0x1C: "War Gong",
	0x1D: "Loco Weed",
	0x1E: "Fire Fang",
	0x1F: "Fire Veil",
	0x20: "Antarctic Wind",
	0x21: "Ice Crystal",
	0x22: "Bolt Plume",
	0x23: "Swift Bolt",
	0x24: "Earth Drum",
	0x25: "Earth Mallet",
	0x26: "Deadly Waste",
	0x27: "M-Tentacles",
	0x28: "Stardust",
	0x29: "Vampire Fang",
	0x2A: "Ghost Hand",
	0x2B: "Vagyrisk Claw",
	0x2C: "Light Curtain",
	0x2D: "Lunar Curtain",
	0x2E: "Mirror",
	0x2F: "Holy Torch",
	0x30: "Bird Wing",
	0x31: "Dragon Scales",
	0x32: "Impaler",
	0x33: "Shrivel",
	0x34: "Eye Drop",
	0x35: "Molotov",
	0x36: "S-Mine",
	0x37: "8-Inch Cannon",
	0x38: "Graviball",
	0x39: "T/S Bomb",
	0x3A: "Ink",
	0x3B: "Dazers",
	0x3C: "Dragon Fang",
	0x3D: "Cauldron",
	0x3E: "Sylkis Greens",
	0x3F: "Reagan Greens",
	0x40: "Mimett Greens",
	0x41: "Curiel Greens",
	0x42: "Pahsana Greens",
	0x43: "Tantal Greens",
	0x44: "Krakka Greens",
	0x45: "Gysahl Greens",
	0x46: "Tent",
	0x47: "Power Source",
	0x48: "Guard Source",
	0x49: "Magic Source",
	0x4A: "Mind Source",
	0x4B: "Speed Source",
	0x4C: "Luck Source",
	0x4D: "Zeio Nut",
	0x4E: "Carob Nut",
	0x4F: "Porov Nut",
	0x50: "Pram Nut",
	0x51: "Lasan Nut",
	0x52: "Saraha Nut",
	0x53: "Luchile Nut",
	0x54: "Pepio Nut",
	0x55: "Battery",
	0x56: "Tissue",
	0x57: "Omnislash",
	0x58: "Catastrophe",
	0x59: "Final Heaven",
	0x5A: "Great Gospel",
	0x5B: "Cosmo Memory",
	0x5C: "All Creation",
	0x5D: "Chaos",
	0x5E: "Highwind",
	0x5F: "1/35 Soldier",
	0x60: "Super Sweeper",
	0x61: "Masamune Blade",
	0x62: "Save Crystal",
	0x63: "Combat Diary",
	0x64: "Autograph",
	0x65: "Gambler",
	0x66: "Desert Rose",
	0x67: "Earth Harp",
	0x68: "Guide Book",
}

// weaponNames names the weapons, indexed by weapon record.
var weaponNames = [128]string{
	0x00: "Buster Sword",
	0x01: "Mythril Saber",
	0x02: "Hardedge",
	0x03: "Butterfly Edge",
	0x04: "Enhance Sword",
	0x05: "Organics",
	0x06: "Crystal Sword",
	0x07: "Force Stealer",
	0x08: "Rune Blade",
	0x09: "Murasame",
	0x0A: "Nail Bat",
	0x0B: "Yoshiyuki",
	0x0C: "Apocalypse",
	0x0D: "Heaven's Cloud",
	0x0E: "Ragnarok",
	0x0F: "Ultima Weapon",
	0x10: "Leather Glove",
	0x11: "Metal Knuckle",
	0x12: "Mythril Claw",
	0x13: "Grand Glove",
	0x14: "Tiger Fang",
	0x15: "Diamond Knuckle",
	0x16: "Dragon Claw",
	0x17: "Crystal Glove",
	0x18: "Motor Drive",
	0x19: "Platinum Fist",
	0x1A: "Kaiser Knuckle",
	0x1B: "Work Glove",
	0x1C: "Powersoul",
	0x1D: "Master Fist",
	0x1E: "God's Hand",
	0x1F: "Premium Heart",
	0x20: "Gatling Gun",
	0x21: "Assault Gun",
	0x22: "Cannon Ball",
	0x23: "Atomic Scissors",
	0x24: "Heavy Vulcan",
	0x25: "Chainsaw",
	0x26: "Microlaser",
	0x27: "A-M Cannon",
	0x28: "W Machine Gun",
	0x29: "Drill Arm",
	0x2A: "Solid Bazooka",
	0x2B: "Rocket Punch",
	0x2C: "Enemy Launcher",
	0x2D: "Pile Banger",
	0x2E: "Max Ray",
	0x2F: "Missing Score",
	0x30: "Mythril Clip",
	0x31: "Diamond Pin",
	0x32: "Silver Barrette",
	0x33: "Gold Barrette",
	0x34: "Adaman Clip",
	0x35: "Crystal Comb",
	0x36: "Magic Comb",
	0x37: "Plus Barrette",
	0x38: "Centclip",
	0x39: "Hairpin",
	0x3A: "Seraph Comb",
	0x3B: "Behemoth Horn",
	0x3C: "Spring Gun Clip",
	0x3D: "Limited Moon",
	0x3E: "Guard Stick",
	0x3F: "Mythril Rod",
	0x40: "Full Metal Staff",
	0x41: "Striking Staff",
	0x42: "Prism Staff",
	0x43: "Aurora Rod",
	0x44: "Wizard Staff",
	0x45: "Wizer Staff",
	0x46: "Fairy Tale",
	0x47: "Umbrella",
	0x48: "Princess Guard",
	0x49: "Spear",
	0x4A: "Slash Lance",
	0x4B: "Trident",
	0x4C: "Mast Ax",
	0x4D: "Partisan",
	0x4E: "Viper Halberd",
	0x4F: "Javelin",
	0x50: "Grow Lance",
	0x51: "Mop",
	0x52: "Dragoon Lance",
	0x53: "Scimitar",
	0x54: "Flayer",
	0x55: "Spirit Lance",
	0x56: "Venus Gospel",
	0x57: "4-point Shuriken",
	0x58: "Boomerang",
	0x59: "Pinwheel",
	0x5A: "Razor Ring",
	0x5B: "Hawkeye",
	0x5C: "Crystal Cross",
	0x5D: "Wind Slash",
	0x5E: "Twin Viper",
	0x5F: "Spiral Shuriken",
	0x60: "Superball",
	0x61: "Magic Shuriken",
	0x62: "Rising Sun",
	0x63: "Oritsuru",
	0x64: "Conformer",
	0x65: "Yellow M-Phone",
	0x66: "Green M-Phone",
	0x67: "Blue M-Phone",
	0x68: "Red M-Phone",
	0x69: "Crystal M-Phone",
	0x6A: "White M-Phone",
	0x6B: "Black M-Phone",
	0x6C: "Silver M-Phone",
	0x6D: "Trumpet Shell",
	0x6E: "Gold M-Phone",
	0x6F: "Battle Trumpet",
	0x70: "Starlight Phone",
	0x71: "HP Shout",
	0x72: "Quicksilver",
	0x73: "Shotgun",
	0x74: "Shortbarrel",
	0x75: "Lariat",
	0x76: "Winchester",
	0x77: "Peacemaker",
	0x78: "Buntline",
	0x79: "Long Barrel R",
	0x7A: "Silver Rifle",
	0x7B: "Sniper CR",
	0x7C: "Supershot",
	0x7D: "Outsider",
	0x7E: "Death Penalty",
	0x7F: "Masamune",
}

// armorNames names the armor, indexed by armor record.
var armorNames = [32]string{
	0x00: "Bronze Bangle",
	0x01: "Iron Bangle",
	0x02: "Titan Bangle",
	0x03: "Mythril Armlet",
	0x04: "Carbon Bangle",
	0x05: "Silver Armlet",
	0x06: "Gold Armlet",
	0x07: "Diamond Bangle",
	0x08: "Crystal Bangle",
	0x09: "Platinum Bangle",
	0x0A: "Rune Armlet",
	0x0B: "Edincoat",
	0x0C: "Wizard Bracelet",
	0x0D: "Adaman Bangle",
	0x0E: "Gigas Armlet",
	0x0F: "Imperial Guard",
	0x10: "Aegis Armlet",
	0x11: "Fourth Bracelet",
	0x12: "Warrior Bangle",
	0x13: "Shinra Beta",
	0x14: "Shinra Alpha",
	0x15: "Four Slots",
	0x16: "Fire Armlet",
	0x17: "Aurora Armlet",
	0x18: "Bolt Armlet",
	0x19: "Dragon Armlet",
	0x1A: "Minerva Band",
	0x1B: "Escort Guard",
	0x1C: "Mystile",
	0x1D: "Ziedrich",
	0x1E: "Precious Watch",
	0x1F: "Chocobracelet",
}

// accessoryNames names the accessories, indexed by accessory record.
var accessoryNames = [32]string{
	0x00: "Power Wrist",
	0x01: "Protect Vest",
	0x02: "Earring",
	0x03: "Talisman",
	0x04: "Choco Feather",
	0x05: "Amulet",
	0x06: "Champion Belt",
	0x07: "Poison Ring",
	0x08: "Tough Ring",
	0x09: "Circlet",
	0x0A: "Star Pendant",
	0x0B: "Silver Glasses",
	0x0C: "Headband",
	0x0D: "Fairy Ring",
	0x0E: "Jem Ring",
	0x0F: "White Cape",
	0x10: "Sprint Shoes",
	0x11: "Peace Ring",
	0x12: "Ribbon",
	0x13: "Fire Ring",
	0x14: "Ice Ring",
	0x15: "Bolt Ring",
	0x16: "Tetra Elemental",
	0x17: "Safety Bit",
	0x18: "Fury Ring",
	0x19: "Curse Ring",
	0x1A: "Protect Ring",
	0x1B: "Cat's Bell",
	0x1C: "Reflect Ring",
	0x1D: "Water Ring",
	0x1E: "Sneak Glove",
	0x1F: "HypnoCrown",
}

// materiaNames names the materia, indexed by materia ID.
var materiaNames = [91]string{
	0x00: "MP Plus",
	0x01: "HP Plus",
	0x02: "Speed Plus",
	0x03: "Magic Plus",
	0x04: "Luck Plus",
	0x05: "EXP Plus",
	0x06: "Gil Plus",
	0x07: "Enemy Away",
	0x08: "Enemy Lure",
	0x09: "Chocobo Lure",
	0x0A: "Pre-Emptive",
	0x0B: "Long Range",
	0x0C: "Mega All",
	0x0D: "Counter Attack",
	0x0E: "Slash-All",
	0x0F: "Double Cut",
	0x10: "Cover",
	0x11: "Underwater",
	0x12: "HP <-> MP",
	0x13: "W-Magic",
	0x14: "W-Summon",
	0x15: "W-Item",
	0x16: "(unused)",
	0x17: "All",
	0x18: "Counter",
	0x19: "Magic Counter",
	0x1A: "MP Turbo",
	0x1B: "MP Absorb",
	0x1C: "HP Absorb",
	0x1D: "Elemental",
	0x1E: "Added Effect",
	0x1F: "Sneak Attack",
	0x20: "Final Attack",
	0x21: "Added Cut",
	0x22: "Steal As Well",
	0x23: "Quadra Magic",
	0x24: "Steal",
	0x25: "Sense",
	0x26: "(unused)",
	0x27: "Throw",
	0x28: "Morph",
	0x29: "Deathblow",
	0x2A: "Manipulate",
	0x2B: "Mime",
	0x2C: "Enemy Skill",
	0x2D: "(unused)",
	0x2E: "(unused)",
	0x2F: "(unused)",
	0x30: "Master Command",
	0x31: "Fire",
	0x32: "Ice",
	0x33: "Earth",
	0x34: "Lightning",
	0x35: "Restore",
	0x36: "Heal",
	0x37: "Revive",
	0x38: "Seal",
	0x39: "Mystify",
	0x3A: "Transform",
	0x3B: "Exit",
	0x3C: "Poison",
	0x3D: "Gravity",
	0x3E: "Barrier",
	0x3F: "(unused)",
	0x40: "Comet",
	0x41: "Time",
	0x42: "(unused)",
	0x43: "(unused)",
	0x44: "Destruct",
	0x45: "Contain",
	0x46: "Full Cure",
	0x47: "Shield",
	0x48: "Ultima",
	0x49: "Master Magic",
	0x4A: "Choco/Mog",
	0x4B: "Shiva",
	0x4C: "Ifrit",
	0x4D: "Titan",
	0x4E: "Ramuh",
	0x4F: "Odin",
	0x50: "Leviathan",
	0x51: "Bahamut",
	0x52: "Kujata",
	0x53: "Alexander",
	0x54: "Phoenix",
	0x55: "Neo Bahamut",
	0x56: "Hades",
	0x57: "Typoon",
	0x58: "Bahamut ZERO",
	0x59: "Knights of the Round",
	0x5A: "Master Summon",
}
